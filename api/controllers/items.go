package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/paygmeter-backend/api/responses"
	"github.com/angelmondragon/paygmeter-backend/api/validators"
	"github.com/angelmondragon/paygmeter-backend/internal/items"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
)

type encoderSecretsRequest struct {
	SecretKey    string `json:"secret_key" validate:"required"`
	StartingCode string `json:"starting_code" validate:"required"`
	MaxCount     int    `json:"max_count" validate:"min=0"`
}

type itemCreateRequest struct {
	SerialNumber  string                 `json:"serial_number" validate:"required"`
	FleetID       string                 `json:"fleet_id" validate:"omitempty,uuid"`
	PaymentPlanID string                 `json:"payment_plan_id" validate:"omitempty,uuid"`
	Encoder       *encoderSecretsRequest `json:"encoder"`
}

func (r itemCreateRequest) toInput() (items.CreateItemInput, error) {
	input := items.CreateItemInput{SerialNumber: strings.TrimSpace(r.SerialNumber)}

	if raw := strings.TrimSpace(r.FleetID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return items.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fleet_id")
		}
		input.FleetID = &id
	}
	if raw := strings.TrimSpace(r.PaymentPlanID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return items.CreateItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_plan_id")
		}
		input.PaymentPlanID = &id
	}
	if r.Encoder != nil {
		input.Encoder = &items.EncoderSecrets{
			SecretKey:    strings.TrimSpace(r.Encoder.SecretKey),
			StartingCode: strings.TrimSpace(r.Encoder.StartingCode),
			MaxCount:     r.Encoder.MaxCount,
		}
	}
	return input, nil
}

// ItemCreate provisions a single metered device.
func ItemCreate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		var payload itemCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type itemBulkCreateRequest struct {
	Items []itemCreateRequest `json:"items" validate:"required,min=1,dive"`
}

// ItemBulkCreate provisions a batch of devices with per-index error
// reporting; invalid rows do not fail the batch.
func ItemBulkCreate(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		var payload itemBulkCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]items.CreateItemInput, 0, len(payload.Items))
		for _, row := range payload.Items {
			input, err := row.toInput()
			if err != nil {
				// Keep positional alignment; the service reports the
				// row error at its index.
				inputs = append(inputs, items.CreateItemInput{})
				continue
			}
			inputs = append(inputs, input)
		}

		result, err := svc.BulkCreateItems(r.Context(), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ItemGet returns the item with its derived payment figures.
func ItemGet(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// ItemList lists items filtered by fleet, customer, or status.
func ItemList(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		fleetID, err := validators.ParseUUIDQuery(r, "fleet_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.ParseUUIDQuery(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListItems(r.Context(), items.ListFilter{
			FleetID:    fleetID,
			CustomerID: customerID,
			Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type itemFleetBatchRequest struct {
	FleetID string   `json:"fleet_id" validate:"required,uuid"`
	ItemIDs []string `json:"item_ids" validate:"required,min=1,dive,uuid"`
}

func (r itemFleetBatchRequest) toIDs() (uuid.UUID, []uuid.UUID, error) {
	fleetID, err := uuid.Parse(strings.TrimSpace(r.FleetID))
	if err != nil {
		return uuid.Nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fleet_id")
	}
	ids := make([]uuid.UUID, 0, len(r.ItemIDs))
	for _, raw := range r.ItemIDs {
		id, parseErr := uuid.Parse(strings.TrimSpace(raw))
		if parseErr != nil {
			return uuid.Nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid item id")
		}
		ids = append(ids, id)
	}
	return fleetID, ids, nil
}

// ItemAssignFleet places unassigned items into a fleet.
func ItemAssignFleet(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return itemFleetBatch(svc, logg, false)
}

// ItemReassignFleet moves already fleeted items to another fleet.
func ItemReassignFleet(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return itemFleetBatch(svc, logg, true)
}

func itemFleetBatch(svc items.Service, logg *logger.Logger, reassign bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		var payload itemFleetBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fleetID, itemIDs, err := payload.toIDs()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var result *items.BatchResult
		if reassign {
			result, err = svc.ReassignToFleet(r.Context(), fleetID, itemIDs)
		} else {
			result, err = svc.AssignToFleet(r.Context(), fleetID, itemIDs)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type itemBuyRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
}

// ItemBuy records the sale of a device to a customer. Items already sold
// cannot be sold again.
func ItemBuy(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload itemBuyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := uuid.Parse(strings.TrimSpace(payload.CustomerID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_id"))
			return
		}

		if err := svc.BuyItem(r.Context(), itemID, customerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"item_id": itemID, "customer_id": customerID})
	}
}

// ItemDelete soft deletes an item.
func ItemDelete(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteItem(r.Context(), itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"deleted": itemID})
	}
}
