package items

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type fleetLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Fleet, error)
}

type customerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// Service defines device inventory operations.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error)
	BulkCreateItems(ctx context.Context, inputs []CreateItemInput) (*BulkCreateResult, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemDetail, error)
	ListItems(ctx context.Context, filter ListFilter) ([]models.Item, error)
	AssignToFleet(ctx context.Context, fleetID uuid.UUID, itemIDs []uuid.UUID) (*BatchResult, error)
	ReassignToFleet(ctx context.Context, fleetID uuid.UUID, itemIDs []uuid.UUID) (*BatchResult, error)
	BuyItem(ctx context.Context, itemID, customerID uuid.UUID) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

// EncoderSecrets is the per-device material required to mint tokens.
type EncoderSecrets struct {
	SecretKey    string
	StartingCode string
	MaxCount     int
}

// CreateItemInput describes one device to provision.
type CreateItemInput struct {
	SerialNumber  string
	FleetID       *uuid.UUID
	PaymentPlanID *uuid.UUID
	Encoder       *EncoderSecrets
}

// ItemDetail is an item plus its derived ledger figures.
type ItemDetail struct {
	Item      *models.Item    `json:"item"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

// BulkCreateResult reports per-index outcomes of a bulk provision.
type BulkCreateResult struct {
	Created []models.Item `json:"created_items"`
	Errors  []IndexError  `json:"errors"`
}

// IndexError ties a bulk failure back to its request position.
type IndexError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BatchResult reports per-item outcomes of a fleet batch operation.
type BatchResult struct {
	Processed []uuid.UUID `json:"processed"`
	Errors    []ItemError `json:"errors"`
}

// ItemError ties a batch failure to the item it concerns.
type ItemError struct {
	ItemID uuid.UUID `json:"item_id"`
	Error  string    `json:"error"`
}

type service struct {
	tx        txRunner
	repo      Repository
	fleets    fleetLoader
	customers customerLoader
}

// NewService wires the items service with its collaborators.
func NewService(tx txRunner, repo Repository, fleets fleetLoader, customers customerLoader) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	if fleets == nil {
		return nil, fmt.Errorf("fleet loader required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	return &service{tx: tx, repo: repo, fleets: fleets, customers: customers}, nil
}

// CreateItem provisions one device, with its encoder secrets when supplied,
// in a single transaction.
func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	if err := s.validateCreate(ctx, input); err != nil {
		return nil, err
	}

	item := &models.Item{
		SerialNumber:  input.SerialNumber,
		FleetID:       input.FleetID,
		PaymentPlanID: input.PaymentPlanID,
		Balance:       decimal.Zero,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, item); err != nil {
			return err
		}
		if input.Encoder == nil {
			return nil
		}
		return repo.CreateEncoderState(ctx, &models.EncoderState{
			ItemID:       item.ID,
			SecretKey:    input.Encoder.SecretKey,
			StartingCode: input.Encoder.StartingCode,
			MaxCount:     input.Encoder.MaxCount,
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// BulkCreateItems provisions many devices, collecting per-index errors so one
// bad row does not sink the batch.
func (s *service) BulkCreateItems(ctx context.Context, inputs []CreateItemInput) (*BulkCreateResult, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items must be a non-empty list")
	}

	result := &BulkCreateResult{}
	for idx, input := range inputs {
		item, err := s.CreateItem(ctx, input)
		if err != nil {
			result.Errors = append(result.Errors, IndexError{Index: idx, Error: err.Error()})
			continue
		}
		result.Created = append(result.Created, *item)
	}
	return result, nil
}

func (s *service) validateCreate(ctx context.Context, input CreateItemInput) error {
	if input.SerialNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "serial number required")
	}
	exists, err := s.repo.SerialExists(ctx, input.SerialNumber)
	if err != nil {
		return err
	}
	if exists {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("serial number %q already exists", input.SerialNumber))
	}
	if input.FleetID != nil {
		if _, err := s.fleets.FindByID(ctx, *input.FleetID); err != nil {
			return err
		}
	}
	if input.Encoder != nil {
		if input.Encoder.SecretKey == "" || input.Encoder.StartingCode == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "encoder secret key and starting code required")
		}
	}
	return nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	totalPaid, err := s.repo.TotalPaid(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ItemDetail{Item: item, TotalPaid: totalPaid}, nil
}

func (s *service) ListItems(ctx context.Context, filter ListFilter) ([]models.Item, error) {
	return s.repo.List(ctx, filter)
}

// AssignToFleet attaches unassigned items to the fleet. Items that already
// belong to a fleet are reported as errors; the reassign operation exists
// for those.
func (s *service) AssignToFleet(ctx context.Context, fleetID uuid.UUID, itemIDs []uuid.UUID) (*BatchResult, error) {
	return s.batchSetFleet(ctx, fleetID, itemIDs, false)
}

// ReassignToFleet moves already-assigned items to a different fleet.
func (s *service) ReassignToFleet(ctx context.Context, fleetID uuid.UUID, itemIDs []uuid.UUID) (*BatchResult, error) {
	return s.batchSetFleet(ctx, fleetID, itemIDs, true)
}

func (s *service) batchSetFleet(ctx context.Context, fleetID uuid.UUID, itemIDs []uuid.UUID, reassign bool) (*BatchResult, error) {
	if fleetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fleet id required")
	}
	if len(itemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item ids must be a non-empty list")
	}
	if _, err := s.fleets.FindByID(ctx, fleetID); err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for _, itemID := range itemIDs {
		item, err := s.repo.FindByID(ctx, itemID)
		if err != nil {
			result.Errors = append(result.Errors, ItemError{ItemID: itemID, Error: err.Error()})
			continue
		}
		if !reassign && item.FleetID != nil {
			result.Errors = append(result.Errors, ItemError{ItemID: itemID, Error: "item already belongs to a fleet; use reassign"})
			continue
		}
		if reassign && item.FleetID == nil {
			result.Errors = append(result.Errors, ItemError{ItemID: itemID, Error: "item is not assigned to any fleet; use assign"})
			continue
		}
		if err := s.repo.SetFleet(ctx, itemID, fleetID); err != nil {
			result.Errors = append(result.Errors, ItemError{ItemID: itemID, Error: err.Error()})
			continue
		}
		result.Processed = append(result.Processed, itemID)
	}
	return result, nil
}

// BuyItem ties the device to its end customer. A purchased item cannot be
// transferred to another customer.
func (s *service) BuyItem(ctx context.Context, itemID, customerID uuid.UUID) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.CustomerID != nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "item has already been purchased by another customer")
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return err
	}
	return s.repo.SetCustomer(ctx, itemID, customerID)
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	return s.repo.SoftDelete(ctx, id)
}
