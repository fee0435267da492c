package payments

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
)

var (
	hoursPerDay = decimal.NewFromInt(24)

	dayFactors = map[enums.IntervalType]decimal.Decimal{
		enums.IntervalTypeHourly:  decimal.NewFromInt(1).Div(hoursPerDay),
		enums.IntervalTypeDaily:   decimal.NewFromInt(1),
		enums.IntervalTypeWeekly:  decimal.NewFromInt(7),
		enums.IntervalTypeMonthly: decimal.NewFromInt(30),
	}
)

// DayFactor converts a billing cadence into the number of unlock days one
// interval is worth. Months are a flat 30 days, calendar-naive.
//
// Unknown cadences fall back to one day. Plans are validated at creation so
// this only fires on rows written before validation existed.
func DayFactor(intervalType enums.IntervalType) decimal.Decimal {
	if factor, ok := dayFactors[intervalType]; ok {
		return factor
	}
	return decimal.NewFromInt(1)
}
