// Package core provides amount parsing utilities.
//
// Amounts arrive as free-form user entries (the calculator widget may leave
// currency symbols or a trailing operator behind) and are parsed into
// decimals before anything is sent to the remote store.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered amount into a decimal.
//
// The dot is the only decimal separator. Every other character that is not a
// digit (currency symbols, grouping commas, spaces) is dropped, the same way
// the entry widget strips its input. Signed, zero and unparsable values are
// rejected.
//
// Examples:
//
//	ParseAmount("12.34")      -> 12.34, nil
//	ParseAmount("฿ 1,500.50") -> 1500.5, nil
//	ParseAmount("0")          -> 0, ErrInvalidAmount
//	ParseAmount("1.2.3")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return decimal.Zero, ErrInvalidAmount
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || strings.Count(cleaned, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(cleaned, ".") {
		cleaned = "0" + cleaned
	}
	cleaned = strings.TrimSuffix(cleaned, ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// AmountFloat returns the parsed amount as the float the remote number
// property expects. Callers must have validated the input first.
func (in TransactionInput) AmountFloat() float64 {
	d, err := ParseAmount(in.Amount)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
