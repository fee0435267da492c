package plans

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
)

// Service defines payment plan operations.
type Service interface {
	CreatePlan(ctx context.Context, input CreatePlanInput) (*models.PaymentPlan, error)
	ListPlans(ctx context.Context, distributorID uuid.UUID) ([]models.PaymentPlan, error)
	AssignPlan(ctx context.Context, itemID, planID uuid.UUID) error
}

// CreatePlanInput captures the pricing of a new plan.
type CreatePlanInput struct {
	DistributorID  uuid.UUID
	Name           string
	TotalAmount    decimal.Decimal
	IntervalType   string
	IntervalAmount decimal.Decimal
}

type service struct {
	repo Repository
}

// NewService wires a plans service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("plans repository required")
	}
	return &service{repo: repo}, nil
}

// CreatePlan validates and persists a plan. An unknown interval cadence is a
// hard validation error so misconfigured plans never reach the issuance
// engine's fallback path.
func (s *service) CreatePlan(ctx context.Context, input CreatePlanInput) (*models.PaymentPlan, error) {
	if input.DistributorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name required")
	}
	if !input.TotalAmount.GreaterThan(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must be greater than zero")
	}
	if !input.IntervalAmount.GreaterThan(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "interval amount must be greater than zero")
	}
	if input.IntervalAmount.GreaterThan(input.TotalAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "interval amount cannot exceed total amount")
	}
	intervalType, err := enums.ParseIntervalType(input.IntervalType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	plan := &models.PaymentPlan{
		DistributorID:  input.DistributorID,
		Name:           input.Name,
		TotalAmount:    input.TotalAmount,
		IntervalType:   intervalType,
		IntervalAmount: input.IntervalAmount,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *service) ListPlans(ctx context.Context, distributorID uuid.UUID) ([]models.PaymentPlan, error) {
	return s.repo.ListByDistributor(ctx, distributorID)
}

func (s *service) AssignPlan(ctx context.Context, itemID, planID uuid.UUID) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if planID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "plan id required")
	}
	if _, err := s.repo.FindByID(ctx, planID); err != nil {
		return err
	}
	return s.repo.AssignToItem(ctx, itemID, planID)
}
