// Package types provides common value types.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyPlaces is the number of fractional digits kept for stored amounts.
const MoneyPlaces int32 = 2

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// NewMoneyFromInt creates a whole Money value.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := NewMoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds to MoneyPlaces using half-up for non-negative amounts
// (decimal.Round rounds half away from zero: 1.005 -> 1.01).
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}
