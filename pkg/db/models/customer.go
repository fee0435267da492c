package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the end buyer of a metered device. Referenced from payments
// for reporting only; the balance lives on the item.
type Customer struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DistributorID uuid.UUID `gorm:"column:distributor_id;type:uuid;not null;index"`
	FullName      string    `gorm:"column:full_name;not null"`
	Phone         *string   `gorm:"column:phone"`
	Email         *string   `gorm:"column:email"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
