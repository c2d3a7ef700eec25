// Package core provides the expense domain model and amount handling.
//
// Amounts are decimal.Decimal values. Raw user text and floats enter the
// domain only through the constructors in this file, which reject
// non-numeric, NaN and infinite input.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user text into a decimal amount.
//
// It accepts plain decimal notation only: an optional sign, digits and at
// most one decimal point ("12", "12.5", "-3.10", ".5"), after trimming
// surrounding whitespace. Exponents are rejected so a short string cannot
// describe an enormous number. Sign is preserved so callers can decide how to
// treat negatives; the ledger rejects them. Anything else, including NaN and
// infinities, returns ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("3.50")  -> 3.5, nil
//	ParseAmount(" 2 ")   -> 2, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
//	ParseAmount("1e9")   -> 0, ErrInvalidAmount
//	ParseAmount("NaN")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !isPlainDecimal(s) {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func isPlainDecimal(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// ParseGoal parses a goal value. Anything that is not a strictly positive
// number returns ErrInvalidGoal.
func ParseGoal(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, ErrInvalidGoal
	}
	if err := ValidateGoal(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// AmountFromFloat converts a float into a decimal amount, rejecting NaN and
// infinities.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromFloat(f), nil
}
