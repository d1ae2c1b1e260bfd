package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxMoney is the largest value a decimal(7,2) column holds.
var MaxMoney = decimal.RequireFromString("99999.99")

// MaxSmallInt bounds quantity and priority.
const MaxSmallInt = 32767

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

func validateMoney(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return invalid(field, "must not be negative")
	}
	if !d.Round(2).Equal(d) {
		return invalid(field, "must have at most 2 decimal places")
	}
	if d.GreaterThan(MaxMoney) {
		return invalid(field, "must not exceed %s", MaxMoney.StringFixed(2))
	}
	return nil
}

func validateLength(field, value string, max int) error {
	if len([]rune(value)) > max {
		return invalid(field, "must be at most %d characters", max)
	}
	return nil
}

func validateOptionalLength(field string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return validateLength(field, *value, max)
}

// ParseDate parses a YYYY-MM-DD date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
