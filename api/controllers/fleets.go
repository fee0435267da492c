package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/paygmeter-backend/api/responses"
	"github.com/angelmondragon/paygmeter-backend/api/validators"
	"github.com/angelmondragon/paygmeter-backend/internal/fleets"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
)

type fleetCreateRequest struct {
	Name          string `json:"name" validate:"required"`
	DistributorID string `json:"distributor_id" validate:"required,uuid"`
	Description   string `json:"description"`
}

func FleetCreate(svc fleets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fleets service unavailable"))
			return
		}

		var payload fleetCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		distributorID, err := uuid.Parse(strings.TrimSpace(payload.DistributorID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid distributor_id"))
			return
		}

		created, err := svc.CreateFleet(r.Context(), fleets.CreateFleetInput{
			Name:          strings.TrimSpace(payload.Name),
			DistributorID: distributorID,
			Description:   optionalString(payload.Description),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func FleetList(svc fleets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fleets service unavailable"))
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

		list, err := svc.ListFleets(r.Context(), scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type fleetAgentBatchRequest struct {
	AgentID  string   `json:"agent_id" validate:"required,uuid"`
	FleetIDs []string `json:"fleet_ids" validate:"required,min=1,dive,uuid"`
}

func (r fleetAgentBatchRequest) toIDs() (uuid.UUID, []uuid.UUID, error) {
	agentID, err := uuid.Parse(strings.TrimSpace(r.AgentID))
	if err != nil {
		return uuid.Nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid agent_id")
	}
	ids := make([]uuid.UUID, 0, len(r.FleetIDs))
	for _, raw := range r.FleetIDs {
		id, parseErr := uuid.Parse(strings.TrimSpace(raw))
		if parseErr != nil {
			return uuid.Nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid fleet id")
		}
		ids = append(ids, id)
	}
	return agentID, ids, nil
}

// FleetAssignAgent hands a batch of unassigned fleets to an agent.
func FleetAssignAgent(svc fleets.Service, logg *logger.Logger) http.HandlerFunc {
	return fleetAgentBatch(svc, logg, false)
}

// FleetReassignAgent moves already assigned fleets to a different agent.
func FleetReassignAgent(svc fleets.Service, logg *logger.Logger) http.HandlerFunc {
	return fleetAgentBatch(svc, logg, true)
}

func fleetAgentBatch(svc fleets.Service, logg *logger.Logger, reassign bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fleets service unavailable"))
			return
		}

		var payload fleetAgentBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agentID, fleetIDs, err := payload.toIDs()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var result *fleets.BatchResult
		if reassign {
			result, err = svc.ReassignAgent(r.Context(), agentID, fleetIDs)
		} else {
			result, err = svc.AssignAgent(r.Context(), agentID, fleetIDs)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// FleetDelete removes a fleet.
func FleetDelete(svc fleets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fleets service unavailable"))
			return
		}

		fleetID, err := validators.ParseUUIDParam(r, "fleetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteFleet(r.Context(), fleetID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"deleted": fleetID})
	}
}
