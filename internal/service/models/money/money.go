package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in minor units.
type Cents int64

var (
	ErrOverflow        = errors.New("amount overflows")
	ErrFractionalCents = errors.New("amount has more than two fractional digits")
	ErrNegative        = errors.New("amount is negative")
)

// Mul returns c * qty, failing instead of wrapping around.
func (c Cents) Mul(qty int) (Cents, error) {
	if qty == 0 || c == 0 {
		return 0, nil
	}
	q := int64(qty)
	if q > 0 && (int64(c) > math.MaxInt64/q || int64(c) < math.MinInt64/q) {
		return 0, ErrOverflow
	}
	if q < 0 {
		return 0, ErrNegative
	}

	return Cents(int64(c) * q), nil
}

// Add returns c + other, failing instead of wrapping around.
func (c Cents) Add(other Cents) (Cents, error) {
	if (other > 0 && c > math.MaxInt64-other) || (other < 0 && c < math.MinInt64-other) {
		return 0, ErrOverflow
	}

	return c + other, nil
}

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount in major units with two fractional digits.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// FromDecimal converts an amount in major units to cents without rounding.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	if d.IsNegative() {
		return 0, ErrNegative
	}
	scaled := d.Shift(2)
	if !scaled.IsInteger() {
		return 0, ErrFractionalCents
	}
	if !scaled.BigInt().IsInt64() {
		return 0, ErrOverflow
	}

	return Cents(scaled.IntPart()), nil
}
