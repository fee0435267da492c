package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an append-only ledger entry. PaymentPlanID snapshots the plan
// active when the payment landed; rows are never mutated or deleted.
type Payment struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID        uuid.UUID       `gorm:"column:item_id;type:uuid;not null;index"`
	PaymentPlanID *uuid.UUID      `gorm:"column:payment_plan_id;type:uuid"`
	CustomerID    *uuid.UUID      `gorm:"column:customer_id;type:uuid"`
	AmountPaid    decimal.Decimal `gorm:"column:amount_paid;type:numeric(10,2);not null"`
	Note          string          `gorm:"column:note;not null;default:''"`
	PaidAt        time.Time       `gorm:"column:paid_at;autoCreateTime"`
}
