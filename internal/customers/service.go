package customers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
)

// Service defines customer operations.
type Service interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*models.Customer, error)
	ListCustomers(ctx context.Context, distributorID uuid.UUID) ([]models.Customer, error)
}

// CreateCustomerInput captures a new end buyer.
type CreateCustomerInput struct {
	DistributorID uuid.UUID
	FullName      string
	Phone         *string
	Email         *string
}

type service struct {
	repo Repository
}

// NewService wires a customers service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*models.Customer, error) {
	if input.DistributorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id required")
	}
	if input.FullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name required")
	}

	customer := &models.Customer{
		DistributorID: input.DistributorID,
		FullName:      input.FullName,
		Phone:         input.Phone,
		Email:         input.Email,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *service) ListCustomers(ctx context.Context, distributorID uuid.UUID) ([]models.Customer, error) {
	return s.repo.ListByDistributor(ctx, distributorID)
}
