// Package core holds the ledger's domain types.
//
// Amounts are always integers in the currency's minor unit (cents). Decimals
// appear only when rendering.
package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

var ErrInvalidAmount = errors.New("invalid amount")

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Neg returns -m.
func (m Money) Neg() Money { return Money{Cents: -m.Cents} }

// IsZero reports whether m is zero.
func (m Money) IsZero() bool { return m.Cents == 0 }

// Decimal returns the major-unit value as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount in major units with two decimals, e.g. "-12.30".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
