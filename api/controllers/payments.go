package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/paygmeter-backend/api/responses"
	"github.com/angelmondragon/paygmeter-backend/api/validators"
	"github.com/angelmondragon/paygmeter-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
)

type paymentSubmitRequest struct {
	ItemID     string `json:"item_id" validate:"required,uuid"`
	Amount     string `json:"amount" validate:"required"`
	CustomerID string `json:"customer_id" validate:"omitempty,uuid"`
	Note       string `json:"note"`
}

func (r paymentSubmitRequest) toInput() (payments.SubmitPaymentInput, error) {
	itemID, err := uuid.Parse(strings.TrimSpace(r.ItemID))
	if err != nil {
		return payments.SubmitPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item_id")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return payments.SubmitPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}

	input := payments.SubmitPaymentInput{
		ItemID: itemID,
		Amount: amount,
		Note:   strings.TrimSpace(r.Note),
	}
	if raw := strings.TrimSpace(r.CustomerID); raw != "" {
		customerID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return payments.SubmitPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid customer_id")
		}
		input.CustomerID = &customerID
	}
	return input, nil
}

// PaymentSubmit converts a payment into the item's issuance outcome. The
// route sits behind the idempotency middleware; a replayed key returns the
// stored outcome without touching the ledger again.
func PaymentSubmit(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload paymentSubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.SubmitPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, outcome)
	}
}

// PaymentHistory lists the payments recorded against an item.
func PaymentHistory(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.ListPayments(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, history)
	}
}

// PaymentCodes lists the unlock codes minted for an item.
func PaymentCodes(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		codes, err := svc.ListGeneratedCodes(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, codes)
	}
}
