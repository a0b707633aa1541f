/*
Package money provides the fixed-point currency primitive used by all
fee and disbursement arithmetic.

PURPOSE:
  Every amount in the system - disbursement amounts, client fees, third
  party fees, outstanding balances - is a Money value. Money wraps
  decimal.Decimal so that fee math never touches binary floating point.

ROUNDING:
  All comparisons and all values that cross a persistence or API
  boundary are rounded to 2 fractional digits, half up. A computation
  chain may carry extra precision internally, but the moment a value is
  checked against a limit or rendered in an error message it goes
  through Round2.

FORMATTING:
  Error messages render money as "$X.XX" and negative values as
  "-$X.XX" (sign before the dollar symbol). String() implements this.

USAGE:
  amt := money.FromFloat(199.995)
  amt.Round2()            // 200.00
  amt.String()            // "$200.00"
  amt.Neg().String()      // "-$200.00"

SEE ALSO:
  - funding/outstanding.go: balance math built on Money
  - funding/fees.go: fee schedule resolution
*/
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an immutable currency amount. The zero value is $0.00.
type Money struct {
	d decimal.Decimal
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

func Zero() Money                { return Money{} }
func FromFloat(f float64) Money  { return Money{d: decimal.NewFromFloat(f)} }
func FromInt(n int64) Money      { return Money{d: decimal.NewFromInt(n)} }
func FromDecimal(d decimal.Decimal) Money { return Money{d: d} }

// FromString parses a decimal string ("12.34"). Invalid input yields an error.
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustParse is FromString for literals in tests and migrations.
// Invalid input returns zero rather than panicking.
func MustParse(s string) Money {
	m, err := FromString(s)
	if err != nil {
		return Money{}
	}
	return m
}

// =============================================================================
// ARITHMETIC
// =============================================================================

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money        { return Money{d: m.d.Neg()} }
func (m Money) Abs() Money        { return Money{d: m.d.Abs()} }

// Round2 rounds to 2 fractional digits, half up.
func (m Money) Round2() Money { return Money{d: m.d.Round(2)} }

// =============================================================================
// COMPARISONS - always on the rounded 2-decimal value
// =============================================================================

func (m Money) IsZero() bool     { return m.d.Round(2).IsZero() }
func (m Money) IsNegative() bool { return m.d.Round(2).IsNegative() }
func (m Money) IsPositive() bool { return m.d.Round(2).IsPositive() }

func (m Money) GreaterThan(o Money) bool { return m.d.Round(2).GreaterThan(o.d.Round(2)) }
func (m Money) LessThan(o Money) bool    { return m.d.Round(2).LessThan(o.d.Round(2)) }
func (m Money) Equal(o Money) bool       { return m.d.Round(2).Equal(o.d.Round(2)) }

// =============================================================================
// CONVERSIONS
// =============================================================================

// Decimal exposes the underlying decimal for persistence.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Float64 returns the rounded value for DTO serialization.
func (m Money) Float64() float64 {
	f, _ := m.d.Round(2).Float64()
	return f
}

// String renders "$X.XX", negative as "-$X.XX".
func (m Money) String() string {
	r := m.d.Round(2)
	if r.IsNegative() {
		return "-$" + r.Abs().StringFixed(2)
	}
	return "$" + r.StringFixed(2)
}
