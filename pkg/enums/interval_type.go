package enums

import "fmt"

// IntervalType is the billing cadence of a payment plan. One interval of
// usage time costs the plan's interval_amount.
type IntervalType string

const (
	IntervalTypeHourly  IntervalType = "hourly"
	IntervalTypeDaily   IntervalType = "daily"
	IntervalTypeWeekly  IntervalType = "weekly"
	IntervalTypeMonthly IntervalType = "monthly"
)

var validIntervalTypes = []IntervalType{
	IntervalTypeHourly,
	IntervalTypeDaily,
	IntervalTypeWeekly,
	IntervalTypeMonthly,
}

// String implements fmt.Stringer.
func (i IntervalType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known IntervalType.
func (i IntervalType) IsValid() bool {
	for _, candidate := range validIntervalTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIntervalType converts the raw string to IntervalType. Rejecting
// unknown cadences here keeps misconfigured plans out of the database, so
// the issuance engine never has to guess a day factor at payment time.
func ParseIntervalType(value string) (IntervalType, error) {
	for _, candidate := range validIntervalTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid interval type %q", value)
}
