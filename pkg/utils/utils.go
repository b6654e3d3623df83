package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places kept for money values
const CurrencyPlaces = 2

// RoundCurrency rounds half away from zero to currency precision
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// IsWholeCents reports whether d has no digits beyond currency precision. "1.500" qualifies.
func IsWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(CurrencyPlaces))
}

// ClampZero returns d, or zero when d is negative
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// AddMonths adds n calendar months to t. The day is clamped to the last day of the target
// month, so Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// IsDateOverdue checks if a due date lies strictly before the day of asOf
func IsDateOverdue(dueDate, asOf time.Time) bool {
	return StartOfDay(dueDate).Before(StartOfDay(asOf))
}

// IsDueWithin reports whether dueDate falls between asOf's day and the given number of days ahead
func IsDueWithin(dueDate, asOf time.Time, days int) bool {
	start := StartOfDay(asOf)
	end := start.AddDate(0, 0, days)
	due := StartOfDay(dueDate)
	return !due.Before(start) && !due.After(end)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
