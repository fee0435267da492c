package enums

import "fmt"

// ItemStatus is the derived payment state of a metered item. It is always
// recomputed from the payment history, never authoritative on its own.
type ItemStatus string

const (
	ItemStatusPending       ItemStatus = "pending"
	ItemStatusPartiallyPaid ItemStatus = "partially_paid"
	ItemStatusFullyPaid     ItemStatus = "fully_paid"
)

var validItemStatuses = []ItemStatus{
	ItemStatusPending,
	ItemStatusPartiallyPaid,
	ItemStatusFullyPaid,
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemStatus converts the raw string to ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
