package fleets

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
)

// Service defines fleet operations.
type Service interface {
	CreateFleet(ctx context.Context, input CreateFleetInput) (*models.Fleet, error)
	GetFleet(ctx context.Context, id uuid.UUID) (*models.Fleet, error)
	ListFleets(ctx context.Context, distributorID uuid.UUID) ([]models.Fleet, error)
	AssignAgent(ctx context.Context, agentID uuid.UUID, fleetIDs []uuid.UUID) (*BatchResult, error)
	ReassignAgent(ctx context.Context, agentID uuid.UUID, fleetIDs []uuid.UUID) (*BatchResult, error)
	DeleteFleet(ctx context.Context, id uuid.UUID) error
}

// CreateFleetInput captures a new fleet.
type CreateFleetInput struct {
	Name          string
	DistributorID uuid.UUID
	Description   *string
}

// BatchResult reports per-fleet outcomes of an agent batch operation.
type BatchResult struct {
	Processed []uuid.UUID  `json:"processed"`
	Errors    []FleetError `json:"errors"`
}

// FleetError ties a batch failure to the fleet it concerns.
type FleetError struct {
	FleetID uuid.UUID `json:"fleet_id"`
	Error   string    `json:"error"`
}

type service struct {
	repo Repository
}

// NewService wires a fleets service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fleets repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateFleet(ctx context.Context, input CreateFleetInput) (*models.Fleet, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fleet name required")
	}
	if input.DistributorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}

	fleet := &models.Fleet{
		Name:          input.Name,
		DistributorID: input.DistributorID,
		Description:   input.Description,
	}
	if err := s.repo.Create(ctx, fleet); err != nil {
		return nil, err
	}
	return fleet, nil
}

func (s *service) GetFleet(ctx context.Context, id uuid.UUID) (*models.Fleet, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fleet id required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListFleets(ctx context.Context, distributorID uuid.UUID) ([]models.Fleet, error) {
	return s.repo.ListByDistributor(ctx, distributorID)
}

// AssignAgent delegates unassigned fleets to a collection agent, collecting
// per-fleet errors. A fleet that already has an agent must go through
// ReassignAgent.
func (s *service) AssignAgent(ctx context.Context, agentID uuid.UUID, fleetIDs []uuid.UUID) (*BatchResult, error) {
	return s.batchSetAgent(ctx, agentID, fleetIDs, false)
}

// ReassignAgent moves fleets from one agent to another.
func (s *service) ReassignAgent(ctx context.Context, agentID uuid.UUID, fleetIDs []uuid.UUID) (*BatchResult, error) {
	return s.batchSetAgent(ctx, agentID, fleetIDs, true)
}

func (s *service) batchSetAgent(ctx context.Context, agentID uuid.UUID, fleetIDs []uuid.UUID, reassign bool) (*BatchResult, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	if len(fleetIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fleet ids must be a non-empty list")
	}

	result := &BatchResult{}
	for _, fleetID := range fleetIDs {
		fleet, err := s.repo.FindByID(ctx, fleetID)
		if err != nil {
			result.Errors = append(result.Errors, FleetError{FleetID: fleetID, Error: err.Error()})
			continue
		}
		if !reassign && fleet.AssignedAgentID != nil {
			result.Errors = append(result.Errors, FleetError{FleetID: fleetID, Error: "fleet is already assigned; use reassign"})
			continue
		}
		if reassign && fleet.AssignedAgentID == nil {
			result.Errors = append(result.Errors, FleetError{FleetID: fleetID, Error: "fleet is not assigned to any agent; use assign"})
			continue
		}
		if err := s.repo.SetAgent(ctx, fleetID, &agentID); err != nil {
			result.Errors = append(result.Errors, FleetError{FleetID: fleetID, Error: err.Error()})
			continue
		}
		result.Processed = append(result.Processed, fleetID)
	}
	return result, nil
}

func (s *service) DeleteFleet(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "fleet id required")
	}
	return s.repo.Delete(ctx, id)
}
