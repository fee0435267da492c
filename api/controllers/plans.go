package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/paygmeter-backend/api/responses"
	"github.com/angelmondragon/paygmeter-backend/api/validators"
	"github.com/angelmondragon/paygmeter-backend/internal/plans"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
)

type planCreateRequest struct {
	DistributorID  string `json:"distributor_id" validate:"required,uuid"`
	Name           string `json:"name" validate:"required"`
	TotalAmount    string `json:"total_amount" validate:"required"`
	IntervalType   string `json:"interval_type" validate:"required"`
	IntervalAmount string `json:"interval_amount" validate:"required"`
}

func (r planCreateRequest) toInput() (plans.CreatePlanInput, error) {
	distributorID, err := uuid.Parse(strings.TrimSpace(r.DistributorID))
	if err != nil {
		return plans.CreatePlanInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid distributor_id")
	}
	total, err := decimal.NewFromString(strings.TrimSpace(r.TotalAmount))
	if err != nil {
		return plans.CreatePlanInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid total_amount")
	}
	interval, err := decimal.NewFromString(strings.TrimSpace(r.IntervalAmount))
	if err != nil {
		return plans.CreatePlanInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid interval_amount")
	}
	return plans.CreatePlanInput{
		DistributorID:  distributorID,
		Name:           strings.TrimSpace(r.Name),
		TotalAmount:    total,
		IntervalType:   strings.TrimSpace(r.IntervalType),
		IntervalAmount: interval,
	}, nil
}

// PlanCreate handles new payment plan definitions.
func PlanCreate(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plans service unavailable"))
			return
		}

		var payload planCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreatePlan(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func PlanList(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plans service unavailable"))
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

		list, err := svc.ListPlans(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type planAssignRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
	PlanID string `json:"plan_id" validate:"required,uuid"`
}

// PlanAssign ties an existing plan to an item.
func PlanAssign(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plans service unavailable"))
			return
		}

		var payload planAssignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(strings.TrimSpace(payload.ItemID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item_id"))
			return
		}
		planID, err := uuid.Parse(strings.TrimSpace(payload.PlanID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan_id"))
			return
		}

		if err := svc.AssignPlan(r.Context(), itemID, planID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"item_id": itemID, "plan_id": planID})
	}
}
