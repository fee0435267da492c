package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
)

// EncoderState holds the per-device secret material the encoder service
// needs to mint tokens, plus the most recently issued token. One row per
// item; mutated only after a successful encoder call.
type EncoderState struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID       uuid.UUID        `gorm:"column:item_id;type:uuid;not null;uniqueIndex"`
	SecretKey    string           `gorm:"column:secret_key;not null"`
	StartingCode string           `gorm:"column:starting_code;not null"`
	MaxCount     int              `gorm:"column:max_count;not null"`
	Token        *string          `gorm:"column:token"`
	TokenType    *enums.TokenType `gorm:"column:token_type"`
	TokenValue   *decimal.Decimal `gorm:"column:token_value;type:numeric(12,6)"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
