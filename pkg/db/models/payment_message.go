package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMessage is deduplicated human-readable text attached to generated
// codes; looked up or created by content.
type PaymentMessage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Message   string    `gorm:"column:message;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
