package fleets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
)

// Repository manages persistence for fleets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, fleet *models.Fleet) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Fleet, error)
	ListByDistributor(ctx context.Context, distributorID uuid.UUID) ([]models.Fleet, error)
	SetAgent(ctx context.Context, fleetID uuid.UUID, agentID *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a fleets repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, fleet *models.Fleet) error {
	if fleet.ID == uuid.Nil {
		fleet.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(fleet).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Fleet, error) {
	var fleet models.Fleet
	if err := r.db.WithContext(ctx).First(&fleet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fleet not found")
		}
		return nil, err
	}
	return &fleet, nil
}

func (r *repository) ListByDistributor(ctx context.Context, distributorID uuid.UUID) ([]models.Fleet, error) {
	var records []models.Fleet
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if distributorID != uuid.Nil {
		query = query.Where("distributor_id = ?", distributorID)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) SetAgent(ctx context.Context, fleetID uuid.UUID, agentID *uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Fleet{}).
		Where("id = ?", fleetID).
		Update("assigned_agent_id", agentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "fleet not found")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Fleet{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "fleet not found")
	}
	return nil
}
