// Package core holds the domain entities shared by the ledger, budget and
// subscription components.
//
// Monetary amounts are decimal throughout: balances accrue from many small
// postings and must round-trip exactly, so binary floats are never persisted.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency amount with cent precision. The zero value is zero.
type Money struct {
	d decimal.Decimal
}

// MoneyFromCents builds a Money from an integer number of currency subunits.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// MoneyFromDecimal rounds an arbitrary decimal to cent precision (half-up).
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d.Round(2)}
}

// ParseMoney parses a decimal string, accepting both dot and comma separators.
// The value is rounded half-up to cents.
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{d: d.Round(2)}, nil
}

// Cents returns the amount in currency subunits.
func (m Money) Cents() int64 {
	return m.d.Shift(2).Round(0).IntPart()
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money        { return Money{d: m.d.Neg()} }

func (m Money) IsPositive() bool     { return m.d.IsPositive() }
func (m Money) IsZero() bool         { return m.d.IsZero() }
func (m Money) Equal(o Money) bool   { return m.d.Equal(o.d) }
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

// Float64 is for statistics only, never for persisted balances.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String formats with exactly two decimals, e.g. "49.00".
func (m Money) String() string { return m.d.StringFixed(2) }

// MarshalJSON renders the amount as a fixed two-decimal string so clients
// never receive a binary float.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.d.StringFixed(2) + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Validate rejects non-positive amounts.
func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
