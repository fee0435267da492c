package enums

import "fmt"

// TokenType identifies the kind of unlock token the encoder service mints
// for the physical meter.
type TokenType string

const (
	TokenTypeAddTime     TokenType = "ADD_TIME"
	TokenTypeSetTime     TokenType = "SET_TIME"
	TokenTypeDisablePAYG TokenType = "DISABLE_PAYG"
	TokenTypeCounterSync TokenType = "COUNTER_SYNC"
)

var validTokenTypes = []TokenType{
	TokenTypeAddTime,
	TokenTypeSetTime,
	TokenTypeDisablePAYG,
	TokenTypeCounterSync,
}

// String implements fmt.Stringer.
func (t TokenType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TokenType.
func (t TokenType) IsValid() bool {
	for _, candidate := range validTokenTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTokenType converts the raw string to TokenType.
func ParseTokenType(value string) (TokenType, error) {
	for _, candidate := range validTokenTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid token type %q", value)
}
