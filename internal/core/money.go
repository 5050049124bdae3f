// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents so that per-category sums always add up
// to the grand total. Decimal conversion goes through shopspring/decimal.
package core

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts beyond a trillion currency units are rejected, so summing any
// realistic list stays far from the int64 limit.
var maxCents = decimal.New(100_000_000_000_000, 0)

// maxExponent bounds the decimal exponent accepted on input. Rescaling a
// value like 1e-40000000 to cents would take minutes.
const maxExponent = 18

// Money is a signed amount in cents.
type Money struct {
	Cents int64
}

// ParseAmount converts a decimal string to Money, rounding half away from zero
// to the cent.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Negative
// and zero amounts are valid.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
//	ParseAmount("-5")     -> -500 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return fromDecimal(d)
}

// NewMoney builds Money from a float amount, for tests and seed data.
func NewMoney(amount float64) Money {
	m, _ := fromDecimal(decimal.NewFromFloat(amount))
	return m
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	if exp := d.Exponent(); exp < -maxExponent || exp > maxExponent {
		return Money{}, fmt.Errorf("%w: exponent %d out of range", ErrInvalidAmount, exp)
	}
	cents := d.Shift(2).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func (m Money) decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Add returns m + o, saturating at the int64 limits instead of wrapping.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: sum}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Float returns the amount in currency units for ratios and display.
// Use cents for arithmetic.
func (m Money) Float() float64 {
	f, _ := m.decimal().Float64()
	return f
}

// String renders the shortest decimal form: 50, 12.5, -3.25.
func (m Money) String() string {
	return m.decimal().String()
}

// Fixed renders the amount with exactly two decimals.
func (m Money) Fixed() string {
	return m.decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	data = bytes.Trim(data, `"`)
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	parsed, err := fromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
