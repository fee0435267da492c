package fleets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
)

type fakeRepository struct {
	fleets map[uuid.UUID]*models.Fleet
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{fleets: map[uuid.UUID]*models.Fleet{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, fleet *models.Fleet) error {
	if fleet.ID == uuid.Nil {
		fleet.ID = uuid.New()
	}
	f.fleets[fleet.ID] = fleet
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Fleet, error) {
	if fleet, ok := f.fleets[id]; ok {
		return fleet, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fleet not found")
}

func (f *fakeRepository) ListByDistributor(ctx context.Context, distributorID uuid.UUID) ([]models.Fleet, error) {
	var out []models.Fleet
	for _, fleet := range f.fleets {
		if distributorID == uuid.Nil || fleet.DistributorID == distributorID {
			out = append(out, *fleet)
		}
	}
	return out, nil
}

func (f *fakeRepository) SetAgent(ctx context.Context, fleetID uuid.UUID, agentID *uuid.UUID) error {
	fleet, ok := f.fleets[fleetID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "fleet not found")
	}
	fleet.AssignedAgentID = agentID
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.fleets[id]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "fleet not found")
	}
	delete(f.fleets, id)
	return nil
}

func newTestService(t *testing.T) (*fakeRepository, Service) {
	t.Helper()
	repo := newFakeRepository()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return repo, svc
}

func createFleet(t *testing.T, svc Service) *models.Fleet {
	t.Helper()
	fleet, err := svc.CreateFleet(context.Background(), CreateFleetInput{
		Name:          "north-region",
		DistributorID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("CreateFleet error: %v", err)
	}
	return fleet
}

func TestCreateFleetValidation(t *testing.T) {
	_, svc := newTestService(t)

	if _, err := svc.CreateFleet(context.Background(), CreateFleetInput{DistributorID: uuid.New()}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if _, err := svc.CreateFleet(context.Background(), CreateFleetInput{Name: "x"}); err == nil {
		t.Fatal("expected error for missing distributor")
	}
}

func TestAssignAgentBatch(t *testing.T) {
	repo, svc := newTestService(t)

	free := createFleet(t, svc)
	taken := createFleet(t, svc)
	existingAgent := uuid.New()
	repo.fleets[taken.ID].AssignedAgentID = &existingAgent

	agentID := uuid.New()
	result, err := svc.AssignAgent(context.Background(), agentID, []uuid.UUID{free.ID, taken.ID, uuid.New()})
	if err != nil {
		t.Fatalf("AssignAgent error: %v", err)
	}

	if len(result.Processed) != 1 || result.Processed[0] != free.ID {
		t.Fatalf("expected only unassigned fleet processed, got %+v", result.Processed)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %+v", result.Errors)
	}
	if repo.fleets[free.ID].AssignedAgentID == nil || *repo.fleets[free.ID].AssignedAgentID != agentID {
		t.Fatal("agent not recorded on fleet")
	}
}

func TestReassignAgentRequiresExistingAssignment(t *testing.T) {
	repo, svc := newTestService(t)

	assigned := createFleet(t, svc)
	oldAgent := uuid.New()
	repo.fleets[assigned.ID].AssignedAgentID = &oldAgent
	unassigned := createFleet(t, svc)

	newAgent := uuid.New()
	result, err := svc.ReassignAgent(context.Background(), newAgent, []uuid.UUID{assigned.ID, unassigned.ID})
	if err != nil {
		t.Fatalf("ReassignAgent error: %v", err)
	}

	if len(result.Processed) != 1 || result.Processed[0] != assigned.ID {
		t.Fatalf("expected only assigned fleet moved, got %+v", result.Processed)
	}
	if *repo.fleets[assigned.ID].AssignedAgentID != newAgent {
		t.Fatal("fleet not moved to new agent")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %+v", result.Errors)
	}
}

func TestAssignAgentValidation(t *testing.T) {
	_, svc := newTestService(t)

	if _, err := svc.AssignAgent(context.Background(), uuid.Nil, []uuid.UUID{uuid.New()}); err == nil {
		t.Fatal("expected error for missing agent")
	}
	if _, err := svc.AssignAgent(context.Background(), uuid.New(), nil); err == nil {
		t.Fatal("expected error for empty fleet list")
	}
}

func TestDeleteFleet(t *testing.T) {
	_, svc := newTestService(t)
	fleet := createFleet(t, svc)

	if err := svc.DeleteFleet(context.Background(), fleet.ID); err != nil {
		t.Fatalf("DeleteFleet error: %v", err)
	}

	err := svc.DeleteFleet(context.Background(), fleet.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
