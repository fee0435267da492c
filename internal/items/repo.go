package items

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
)

// ListFilter narrows item listings.
type ListFilter struct {
	FleetID    *uuid.UUID
	CustomerID *uuid.UUID
	Status     string
}

// Repository manages persistence for metered items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.Item) error
	CreateEncoderState(ctx context.Context, state *models.EncoderState) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	List(ctx context.Context, filter ListFilter) ([]models.Item, error)
	SetFleet(ctx context.Context, itemID uuid.UUID, fleetID uuid.UUID) error
	SetCustomer(ctx context.Context, itemID, customerID uuid.UUID) error
	SoftDelete(ctx context.Context, itemID uuid.UUID) error
	TotalPaid(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
	SerialExists(ctx context.Context, serial string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an items repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) CreateEncoderState(ctx context.Context, state *models.EncoderState) error {
	if state.ID == uuid.Nil {
		state.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(state).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).
		Preload("PaymentPlan").
		Preload("EncoderState").
		First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Item, error) {
	query := r.db.WithContext(ctx).Preload("PaymentPlan").Order("created_at DESC")
	if filter.FleetID != nil {
		query = query.Where("fleet_id = ?", *filter.FleetID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var records []models.Item
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) SetFleet(ctx context.Context, itemID uuid.UUID, fleetID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Update("fleet_id", fleetID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return nil
}

func (r *repository) SetCustomer(ctx context.Context, itemID, customerID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Update("customer_id", customerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return nil
}

// SoftDelete stamps deleted_at; gorm's default scope then hides the row from
// every query in this repository.
func (r *repository) SoftDelete(ctx context.Context, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", itemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return nil
}

func (r *repository) TotalPaid(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("item_id = ?", itemID).
		Select("SUM(amount_paid)").
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repository) SerialExists(ctx context.Context, serial string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("serial_number = ?", serial).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
