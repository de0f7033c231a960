// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Decimal is the fixed-point numeric used for line quantities and unit
// costs. Maps to Postgres NUMERIC; avoids floating-point drift.
type Decimal = decimal.Decimal

// NewDecimal creates a Decimal from a float.
// WARNING: Use NewDecimalFromString for precise values.
func NewDecimal(f float64) Decimal {
	return decimal.NewFromFloat(f)
}

// NewDecimalFromString creates a Decimal from a string.
// This is the preferred method for exact values.
func NewDecimalFromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

// MustDecimal creates a Decimal from a string, panics on error.
// Use only for constants and tests.
func MustDecimal(s string) Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns the zero Decimal value.
func Zero() Decimal {
	return decimal.Zero
}
