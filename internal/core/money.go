package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input to a strictly positive decimal.
//
// Thousands separators (commas) are stripped before parsing, so "1,250.50"
// is 1250.50. Negative, zero, non-numeric, exponent notation and
// out-of-range input yield ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || strings.HasPrefix(s, "+") || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := validateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
