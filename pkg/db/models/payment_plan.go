package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
)

// PaymentPlan prices one interval of usage time and caps the total owed for
// a device. Plan names are unique per distributor.
type PaymentPlan struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DistributorID  uuid.UUID          `gorm:"column:distributor_id;type:uuid;not null;uniqueIndex:idx_payment_plans_distributor_name"`
	Name           string             `gorm:"column:name;not null;uniqueIndex:idx_payment_plans_distributor_name"`
	TotalAmount    decimal.Decimal    `gorm:"column:total_amount;type:numeric(10,2);not null"`
	IntervalType   enums.IntervalType `gorm:"column:interval_type;not null"`
	IntervalAmount decimal.Decimal    `gorm:"column:interval_amount;type:numeric(10,2);not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
