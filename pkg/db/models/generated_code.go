package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
)

// GeneratedCode is the immutable audit record of one token mint. A row only
// exists after the encoder service answered successfully.
type GeneratedCode struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID           uuid.UUID       `gorm:"column:item_id;type:uuid;not null;index"`
	Token            string          `gorm:"column:token;not null;uniqueIndex"`
	TokenType        enums.TokenType `gorm:"column:token_type;not null"`
	TokenValue       decimal.Decimal `gorm:"column:token_value;type:numeric(12,6);not null"`
	MaxCount         int             `gorm:"column:max_count;not null"`
	PaymentMessageID uuid.UUID       `gorm:"column:payment_message_id;type:uuid;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`

	PaymentMessage *PaymentMessage `gorm:"foreignKey:PaymentMessageID"`
}
