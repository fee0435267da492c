package payments

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/paygmeter-backend/pkg/db/models"
	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
)

// Decision classifies what a payment earned the device.
type Decision string

const (
	DecisionNoPlan           Decision = "no_plan"
	DecisionAlreadyComplete  Decision = "already_complete"
	DecisionCompletesNow     Decision = "completes_now"
	DecisionIntervalEligible Decision = "interval_eligible"
	DecisionInsufficient     Decision = "insufficient"
)

const (
	completionMessage = "Congratulations! Full payment completed."
	completionValue   = 1
)

// IntervalMessage is the human-readable text attached to an interval grant.
func IntervalMessage(intervalType enums.IntervalType) string {
	return fmt.Sprintf("Code generated for %s usage.", intervalType)
}

// EvaluationInput is the persisted state a single payment is judged against.
// Balance is the item balance after the payment has been credited;
// TotalPaidBefore is the ledger sum before it.
type EvaluationInput struct {
	Balance         decimal.Decimal
	Plan            *models.PaymentPlan
	TotalPaidBefore decimal.Decimal
	AmountPaid      decimal.Decimal
}

// Evaluation is the engine's verdict plus everything needed to act on it.
type Evaluation struct {
	Decision         Decision
	NumIntervals     int64
	Debit            decimal.Decimal
	RemainingBalance decimal.Decimal
	Days             decimal.Decimal
	TokenType        enums.TokenType
	TokenValue       decimal.Decimal
}

// Evaluate runs the issuance state machine. It is a pure function: every
// payment is re-evaluated from scratch against persisted state, no memory
// is carried between calls.
func Evaluate(in EvaluationInput) Evaluation {
	if in.Plan == nil {
		return Evaluation{Decision: DecisionNoPlan, RemainingBalance: in.Balance}
	}

	if in.TotalPaidBefore.GreaterThanOrEqual(in.Plan.TotalAmount) {
		return Evaluation{Decision: DecisionAlreadyComplete, RemainingBalance: in.Balance}
	}

	if in.TotalPaidBefore.Add(in.AmountPaid).GreaterThanOrEqual(in.Plan.TotalAmount) {
		// Completion overrides interval accounting: the device is unlocked
		// for good and the balance is left untouched.
		return Evaluation{
			Decision:         DecisionCompletesNow,
			RemainingBalance: in.Balance,
			TokenType:        enums.TokenTypeDisablePAYG,
			TokenValue:       decimal.NewFromInt(completionValue),
		}
	}

	if in.Balance.LessThan(in.Plan.IntervalAmount) {
		return Evaluation{Decision: DecisionInsufficient, RemainingBalance: in.Balance}
	}

	numIntervals := in.Balance.Div(in.Plan.IntervalAmount).Floor().IntPart()
	count := decimal.NewFromInt(numIntervals)
	debit := in.Plan.IntervalAmount.Mul(count)
	days := DayFactor(in.Plan.IntervalType).Mul(count)

	return Evaluation{
		Decision:         DecisionIntervalEligible,
		NumIntervals:     numIntervals,
		Debit:            debit,
		RemainingBalance: in.Balance.Sub(debit),
		Days:             days,
		TokenType:        enums.TokenTypeAddTime,
		TokenValue:       days,
	}
}

// StatusFor derives the item status from the ledger sum and the plan cap.
func StatusFor(totalPaid decimal.Decimal, plan *models.PaymentPlan) enums.ItemStatus {
	if plan == nil {
		return enums.ItemStatusPending
	}
	switch {
	case totalPaid.GreaterThanOrEqual(plan.TotalAmount):
		return enums.ItemStatusFullyPaid
	case totalPaid.GreaterThan(decimal.Zero):
		return enums.ItemStatusPartiallyPaid
	default:
		return enums.ItemStatusPending
	}
}
