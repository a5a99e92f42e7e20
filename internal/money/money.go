// Package money represents currency amounts as integer minor units (cents).
//
// All arithmetic stays on int64 so sums never drift. The only place a decimal
// representation appears is the display conversion in String and Parse, and the
// exact intermediate product in Percent.
package money

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units. 1234 is 12.34.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

var (
	ErrInvalidDivisor = errors.New("divisor must be positive")
	ErrPrecision      = errors.New("amount has more than two decimal places")
	ErrOutOfRange     = errors.New("amount out of range")
)

var hundred = decimal.NewFromInt(100)

// FromCents builds a Money from a raw minor-unit count.
func FromCents(c int64) Money { return Money(c) }

// Cents returns the raw minor-unit count.
func (m Money) Cents() int64 { return int64(m) }

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }
func (m Money) Mul(n int64) Money { return m * Money(n) }
func (m Money) Neg() Money        { return -m }

// MulWithin returns m*n. ok is false when the product falls outside
// [-MaxAmount, MaxAmount], including when int64 multiplication would wrap.
func (m Money) MulWithin(n int64) (product Money, ok bool) {
	hi, lo := bits.Mul64(abs(int64(m)), abs(n))
	if hi != 0 || lo > maxCents {
		return 0, false
	}
	product = Money(lo)
	if (m < 0) != (n < 0) {
		product = -product
	}
	return product, true
}

func abs(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsNegative() bool { return m < 0 }

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	switch {
	case m < o:
		return -1
	case m > o:
		return 1
	default:
		return 0
	}
}

// Split divides m into n equal parts. The remainder (always in [0, n)) is
// returned rather than dropped so the caller decides who receives it.
func (m Money) Split(n int) (quotient Money, remainder Money, err error) {
	if n <= 0 {
		return 0, 0, ErrInvalidDivisor
	}
	if m < 0 {
		return 0, 0, fmt.Errorf("cannot split negative amount %s", m)
	}
	q := m / Money(n)
	return q, m - q*Money(n), nil
}

// Percent computes m * p / 100 rounded half-up to a whole minor unit.
// fraction is the exact product minus its floor, in [0, 1).
func (m Money) Percent(p decimal.Decimal) (rounded Money, fraction decimal.Decimal) {
	exact := decimal.NewFromInt(int64(m)).Mul(p).Div(hundred)
	floor := exact.Floor()
	return Money(exact.Round(0).IntPart()), exact.Sub(floor)
}

// Decimal returns m in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String renders the two-decimal display form, e.g. "12.34".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Parse converts a display string such as "12.3" or "-0.05" into Money.
// Inputs finer than a cent are rejected instead of rounded.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.Equal(d.Truncate(2)) {
		return 0, fmt.Errorf("invalid amount %q: %w", s, ErrPrecision)
	}
	cents := d.Shift(2)
	if cents.GreaterThan(decimal.NewFromInt(maxCents)) || cents.LessThan(decimal.NewFromInt(-maxCents)) {
		return 0, fmt.Errorf("invalid amount %q: %w", s, ErrOutOfRange)
	}
	return Money(cents.IntPart()), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// maxCents keeps parsed values well inside int64. Sums of a few such values
// cannot wrap; products must go through MulWithin.
const maxCents = 1 << 53

// MaxAmount is the largest amount Parse accepts and the ceiling for item
// amounts and receipt totals.
const MaxAmount Money = maxCents
