package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
)

// Item is a physical PAYG-metered device. Balance accumulates payments that
// have not yet been converted into unlock time; Status is derived from the
// payment history and the assigned plan.
type Item struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SerialNumber  string           `gorm:"column:serial_number;not null;uniqueIndex"`
	FleetID       *uuid.UUID       `gorm:"column:fleet_id;type:uuid;index"`
	CustomerID    *uuid.UUID       `gorm:"column:customer_id;type:uuid"`
	PaymentPlanID *uuid.UUID       `gorm:"column:payment_plan_id;type:uuid"`
	Balance       decimal.Decimal  `gorm:"column:balance;type:numeric(10,2);not null;default:0"`
	Status        enums.ItemStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt     gorm.DeletedAt   `gorm:"column:deleted_at;index"`

	PaymentPlan  *PaymentPlan  `gorm:"foreignKey:PaymentPlanID"`
	EncoderState *EncoderState `gorm:"foreignKey:ItemID"`
}
