package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/paygmeter-backend/api/responses"
	"github.com/angelmondragon/paygmeter-backend/api/validators"
	"github.com/angelmondragon/paygmeter-backend/internal/customers"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
)

type customerCreateRequest struct {
	DistributorID string `json:"distributor_id" validate:"required,uuid"`
	FullName      string `json:"full_name" validate:"required"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}

func CustomerCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var payload customerCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		distributorID, err := uuid.Parse(strings.TrimSpace(payload.DistributorID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid distributor_id"))
			return
		}

		created, err := svc.CreateCustomer(r.Context(), customers.CreateCustomerInput{
			DistributorID: distributorID,
			FullName:      strings.TrimSpace(payload.FullName),
			Phone:         optionalString(payload.Phone),
			Email:         optionalString(payload.Email),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		distributorID, err := validators.ParseUUIDQuery(r, "distributor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := uuid.Nil
		if distributorID != nil {
			scope = *distributorID
		}

		list, err := svc.ListCustomers(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
