package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
)

// Repository manages persistence for the payment ledger and token records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItemForUpdate(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	SumPaid(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	CreditBalance(ctx context.Context, itemID uuid.UUID, amount decimal.Decimal) error
	DebitBalance(ctx context.Context, itemID uuid.UUID, amount decimal.Decimal) error
	UpdateStatus(ctx context.Context, itemID uuid.UUID, status enums.ItemStatus) error
	UpdateEncoderToken(ctx context.Context, stateID uuid.UUID, update EncoderTokenUpdate) error
	FirstOrCreateMessage(ctx context.Context, text string) (*models.PaymentMessage, error)
	CreateGeneratedCode(ctx context.Context, code *models.GeneratedCode) error
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Payment, error)
	ListCodesByItem(ctx context.Context, itemID uuid.UUID) ([]models.GeneratedCode, error)
}

// EncoderTokenUpdate carries the encoder response fields written back to the
// device state after a successful mint.
type EncoderTokenUpdate struct {
	Token      string
	TokenType  enums.TokenType
	TokenValue decimal.Decimal
	MaxCount   int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindItemForUpdate loads the item with its plan and encoder state. On
// Postgres the item row is locked for the rest of the transaction so two
// concurrent payments cannot both observe the same pre-debit balance.
func (r *repository) FindItemForUpdate(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "items"}})
	}

	var item models.Item
	if err := query.
		Preload("PaymentPlan").
		Preload("EncoderState").
		First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) SumPaid(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
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

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) CreditBalance(ctx context.Context, itemID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Update("balance", gorm.Expr("balance + ?", amount)).Error
}

// DebitBalance subtracts the interval debit, guarded so a concurrent writer
// that already drained the balance turns the debit into a conflict instead
// of a negative balance.
func (r *repository) DebitBalance(ctx context.Context, itemID uuid.UUID, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ? AND balance >= ?", itemID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "item balance changed concurrently")
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, itemID uuid.UUID, status enums.ItemStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Update("status", status).Error
}

func (r *repository) UpdateEncoderToken(ctx context.Context, stateID uuid.UUID, update EncoderTokenUpdate) error {
	return r.db.WithContext(ctx).
		Model(&models.EncoderState{}).
		Where("id = ?", stateID).
		Updates(map[string]any{
			"token":       update.Token,
			"token_type":  update.TokenType,
			"token_value": update.TokenValue,
			"max_count":   update.MaxCount,
		}).Error
}

func (r *repository) FirstOrCreateMessage(ctx context.Context, text string) (*models.PaymentMessage, error) {
	var message models.PaymentMessage
	if err := r.db.WithContext(ctx).
		Where(models.PaymentMessage{Message: text}).
		Attrs(models.PaymentMessage{ID: uuid.New()}).
		FirstOrCreate(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *repository) CreateGeneratedCode(ctx context.Context, code *models.GeneratedCode) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.Payment, error) {
	var records []models.Payment
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("paid_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListCodesByItem(ctx context.Context, itemID uuid.UUID) ([]models.GeneratedCode, error) {
	var codes []models.GeneratedCode
	if err := r.db.WithContext(ctx).
		Preload("PaymentMessage").
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
