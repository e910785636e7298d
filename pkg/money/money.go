// Package money represents storefront amounts as integer minor units (cents).
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents.
type Money int64

const Zero Money = 0

// MaxAmount bounds every amount the storefront accepts or derives: 10 billion in major units.
const MaxAmount Money = 1_000_000_000_000

// ErrOutOfRange reports an amount or product beyond MaxAmount.
var ErrOutOfRange = errors.New("money: amount out of range")

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(int64(MaxAmount))
	minCents = maxCents.Neg()
)

func FromCents(cents int64) Money {
	return Money(cents)
}

// FromDecimal converts a major-unit amount (e.g. 12.345) to cents, rounding half away
// from zero. Amounts beyond MaxAmount saturate; use Parse to reject them instead.
func FromDecimal(d decimal.Decimal) Money {
	return fromCents(d.Mul(hundred))
}

func fromCents(cents decimal.Decimal) Money {
	cents = cents.Round(0)
	switch {
	case cents.GreaterThan(maxCents):
		return MaxAmount
	case cents.LessThan(minCents):
		return -MaxAmount
	}
	return Money(cents.IntPart())
}

func checked(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return Money(cents.IntPart()), nil
}

// Parse reads a major-unit amount such as "49.99" or "$5".
func Parse(raw string) (Money, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "$")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", raw, err)
	}
	return checked(d)
}

func (m Money) Cents() int64 {
	return int64(m)
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Display renders the amount for shopper-facing messages, e.g. "$50.00".
func (m Money) Display() string {
	if m < 0 {
		return "-$" + (-m).String()
	}
	return "$" + m.String()
}

func (m Money) inRange() bool {
	return m >= -MaxAmount && m <= MaxAmount
}

// Mul returns m * qty, or ErrOutOfRange when the product leaves [-MaxAmount, MaxAmount]
// or qty is negative.
func (m Money) Mul(qty int) (Money, error) {
	if qty < 0 || !m.inRange() {
		return 0, ErrOutOfRange
	}
	if qty == 0 || m == 0 {
		return 0, nil
	}
	abs := m
	if abs < 0 {
		abs = -abs
	}
	if int64(qty) > int64(MaxAmount/abs) {
		return 0, ErrOutOfRange
	}
	return m * Money(qty), nil
}

// Add returns m + o, or ErrOutOfRange when either operand or the sum leaves
// [-MaxAmount, MaxAmount].
func (m Money) Add(o Money) (Money, error) {
	if !m.inRange() || !o.inRange() {
		return 0, ErrOutOfRange
	}
	sum := m + o
	if !sum.inRange() {
		return 0, ErrOutOfRange
	}
	return sum, nil
}

// Percent returns pct percent of m, rounded half away from zero to the cent.
func (m Money) Percent(pct decimal.Decimal) Money {
	return fromCents(decimal.NewFromInt(int64(m)).Mul(pct).Div(hundred))
}

// BasisPoints returns bps/10000 of m, rounded half away from zero to the cent.
func (m Money) BasisPoints(bps int64) Money {
	return fromCents(decimal.NewFromInt(int64(m)).Mul(decimal.NewFromInt(bps)).Div(decimal.NewFromInt(10000)))
}

func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// MarshalJSON encodes the amount as a JSON number in major units with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string in major units.
// Amounts beyond MaxAmount are rejected.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = 0
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode money: %w", err)
	}
	v, err := checked(d)
	if err != nil {
		return fmt.Errorf("decode money: %w", err)
	}
	*m = v
	return nil
}
