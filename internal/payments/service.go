package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	"github.com/angelmondragon/paygmeter-backend/pkg/encoder"
	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
	"github.com/angelmondragon/paygmeter-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type tokenMinter interface {
	Generate(ctx context.Context, req encoder.GenerateRequest) (*encoder.GenerateResponse, error)
}

// Service is the single entry point for applying payments to metered items.
type Service interface {
	SubmitPayment(ctx context.Context, input SubmitPaymentInput) (*PaymentOutcome, error)
	ListPayments(ctx context.Context, itemID uuid.UUID) ([]models.Payment, error)
	ListGeneratedCodes(ctx context.Context, itemID uuid.UUID) ([]models.GeneratedCode, error)
}

// SubmitPaymentInput carries one incoming payment.
type SubmitPaymentInput struct {
	ItemID     uuid.UUID
	Amount     decimal.Decimal
	CustomerID *uuid.UUID
	Note       string
}

// PaymentOutcome reports what the payment bought.
type PaymentOutcome struct {
	Detail         string           `json:"detail"`
	Decision       Decision         `json:"decision"`
	CurrentBalance decimal.Decimal  `json:"current_balance"`
	Status         enums.ItemStatus `json:"status"`
	Token          string           `json:"token,omitempty"`
	TokenType      enums.TokenType  `json:"token_type,omitempty"`
	Days           decimal.Decimal  `json:"days"`
	IsCompletion   bool             `json:"is_completion"`
}

type service struct {
	tx      txRunner
	repo    Repository
	minter  tokenMinter
	metrics *metrics.PaymentMetrics
	logger  *logger.Logger
}

// NewService wires the payment service with its collaborators.
func NewService(tx txRunner, repo Repository, minter tokenMinter, m *metrics.PaymentMetrics, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if minter == nil {
		return nil, fmt.Errorf("token minter required")
	}
	return &service{tx: tx, repo: repo, minter: minter, metrics: m, logger: logg}, nil
}

// SubmitPayment records the payment, credits the balance, and converts
// accumulated value into an unlock token when one is due.
//
// The encoder call runs inside the same database transaction as the ledger
// writes: a gateway failure rolls everything back and the caller retries
// with the same Idempotency-Key, so the payment is never left half-applied.
func (s *service) SubmitPayment(ctx context.Context, input SubmitPaymentInput) (*PaymentOutcome, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if !input.Amount.GreaterThan(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}

	ctx = s.withItemLog(ctx, input.ItemID)

	var outcome *PaymentOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItemForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}

		totalBefore, err := repo.SumPaid(ctx, item.ID)
		if err != nil {
			return err
		}

		payment := &models.Payment{
			ItemID:        item.ID,
			PaymentPlanID: item.PaymentPlanID,
			CustomerID:    input.CustomerID,
			AmountPaid:    input.Amount,
			Note:          input.Note,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return err
		}
		if err := repo.CreditBalance(ctx, item.ID, input.Amount); err != nil {
			return err
		}

		eval := Evaluate(EvaluationInput{
			Balance:         item.Balance.Add(input.Amount),
			Plan:            item.PaymentPlan,
			TotalPaidBefore: totalBefore,
			AmountPaid:      input.Amount,
		})

		totalAfter := totalBefore.Add(input.Amount)
		outcome, err = s.settle(ctx, repo, item, eval, totalAfter)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncDecision(string(outcome.Decision))
	if s.logger != nil {
		s.logger.Info(s.logger.WithFields(ctx, map[string]any{
			"decision": outcome.Decision,
			"balance":  outcome.CurrentBalance.String(),
			"status":   outcome.Status,
		}), "payment applied")
	}
	return outcome, nil
}

func (s *service) settle(ctx context.Context, repo Repository, item *models.Item, eval Evaluation, totalAfter decimal.Decimal) (*PaymentOutcome, error) {
	switch eval.Decision {
	case DecisionNoPlan:
		return &PaymentOutcome{
			Detail:         "Payment recorded; item has no payment plan.",
			Decision:       eval.Decision,
			CurrentBalance: eval.RemainingBalance,
			Status:         item.Status,
		}, nil

	case DecisionAlreadyComplete:
		if err := s.applyStatus(ctx, repo, item, enums.ItemStatusFullyPaid); err != nil {
			return nil, err
		}
		return &PaymentOutcome{
			Detail:         "Payment recorded; plan already fully paid.",
			Decision:       eval.Decision,
			CurrentBalance: eval.RemainingBalance,
			Status:         enums.ItemStatusFullyPaid,
		}, nil

	case DecisionCompletesNow:
		token, err := s.mint(ctx, repo, item, eval, completionMessage)
		if err != nil {
			return nil, err
		}
		if err := s.applyStatus(ctx, repo, item, enums.ItemStatusFullyPaid); err != nil {
			return nil, err
		}
		return &PaymentOutcome{
			Detail:         completionMessage,
			Decision:       eval.Decision,
			CurrentBalance: eval.RemainingBalance,
			Status:         enums.ItemStatusFullyPaid,
			Token:          token,
			TokenType:      eval.TokenType,
			Days:           eval.TokenValue,
			IsCompletion:   true,
		}, nil

	case DecisionIntervalEligible:
		if err := repo.DebitBalance(ctx, item.ID, eval.Debit); err != nil {
			return nil, err
		}
		detail := IntervalMessage(item.PaymentPlan.IntervalType)
		token, err := s.mint(ctx, repo, item, eval, detail)
		if err != nil {
			return nil, err
		}
		status := StatusFor(totalAfter, item.PaymentPlan)
		if err := s.applyStatus(ctx, repo, item, status); err != nil {
			return nil, err
		}
		return &PaymentOutcome{
			Detail:         detail,
			Decision:       eval.Decision,
			CurrentBalance: eval.RemainingBalance,
			Status:         status,
			Token:          token,
			TokenType:      eval.TokenType,
			Days:           eval.Days,
		}, nil

	default:
		status := StatusFor(totalAfter, item.PaymentPlan)
		if err := s.applyStatus(ctx, repo, item, status); err != nil {
			return nil, err
		}
		return &PaymentOutcome{
			Detail:         "Payment recorded; balance is below one interval.",
			Decision:       DecisionInsufficient,
			CurrentBalance: eval.RemainingBalance,
			Status:         status,
		}, nil
	}
}

// mint calls the encoder and persists the audit trail for the issued token.
func (s *service) mint(ctx context.Context, repo Repository, item *models.Item, eval Evaluation, messageText string) (string, error) {
	state := item.EncoderState
	if state == nil {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "item has no encoder state")
	}

	start := time.Now()
	resp, err := s.minter.Generate(ctx, encoder.GenerateRequest{
		TokenType:    eval.TokenType,
		TokenValue:   eval.TokenValue,
		MaxCount:     state.MaxCount,
		StartingCode: state.StartingCode,
		SecretKey:    state.SecretKey,
	})
	if err != nil {
		s.metrics.ObserveGateway("error", time.Since(start))
		s.metrics.IncGatewayError()
		return "", err
	}
	s.metrics.ObserveGateway("success", time.Since(start))

	message, err := repo.FirstOrCreateMessage(ctx, messageText)
	if err != nil {
		return "", err
	}
	if err := repo.CreateGeneratedCode(ctx, &models.GeneratedCode{
		ItemID:           item.ID,
		Token:            resp.Token,
		TokenType:        resp.TokenType,
		TokenValue:       resp.TokenValue,
		MaxCount:         resp.MaxCount,
		PaymentMessageID: message.ID,
	}); err != nil {
		return "", err
	}
	if err := repo.UpdateEncoderToken(ctx, state.ID, EncoderTokenUpdate{
		Token:      resp.Token,
		TokenType:  resp.TokenType,
		TokenValue: resp.TokenValue,
		MaxCount:   resp.MaxCount,
	}); err != nil {
		return "", err
	}

	s.metrics.IncTokenIssued(string(resp.TokenType))
	return resp.Token, nil
}

func (s *service) applyStatus(ctx context.Context, repo Repository, item *models.Item, status enums.ItemStatus) error {
	if item.Status == status {
		return nil
	}
	return repo.UpdateStatus(ctx, item.ID, status)
}

func (s *service) ListPayments(ctx context.Context, itemID uuid.UUID) ([]models.Payment, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	return s.repo.ListByItem(ctx, itemID)
}

func (s *service) ListGeneratedCodes(ctx context.Context, itemID uuid.UUID) ([]models.GeneratedCode, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	return s.repo.ListCodesByItem(ctx, itemID)
}

func (s *service) withItemLog(ctx context.Context, itemID uuid.UUID) context.Context {
	if s.logger == nil {
		return ctx
	}
	return s.logger.WithItemID(ctx, itemID.String())
}
