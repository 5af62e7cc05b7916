package model

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Amount is an exact rational quantity, stored as a reduced numerator over a
// positive denominator. All arithmetic goes through big.Rat, so no operation
// ever loses precision or drifts the way floating point would.
type Amount struct {
	Num   int64
	Denom int64
}

// AmountZero is the canonical zero quantity.
var AmountZero = Amount{Num: 0, Denom: 1}

// NewAmount builds an Amount from a numerator/denominator pair. The pair is
// reduced to lowest terms with the sign carried on the numerator.
func NewAmount(num, denom int64) (Amount, error) {
	if denom == 0 {
		return Amount{}, fmt.Errorf("amount %d/%d: %w", num, denom, ErrInvalidArgument)
	}
	return amountFromRat(big.NewRat(num, denom))
}

// MustAmount is NewAmount for statically-known pairs; it panics on a zero
// denominator.
func MustAmount(num, denom int64) Amount {
	a, err := NewAmount(num, denom)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromDecimal converts a decimal into an exact Amount. A value whose
// reduced form does not fit int64 is rejected, never wrapped.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	return amountFromRat(d.Rat())
}

// ParseAmount parses a decimal string like "10.00" or "-4.5".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return AmountFromDecimal(d)
}

func amountFromRat(r *big.Rat) (Amount, error) {
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Amount{}, fmt.Errorf("amount %s overflows int64: %w", r.RatString(), ErrInvalidArgument)
	}
	return Amount{Num: r.Num().Int64(), Denom: r.Denom().Int64()}, nil
}

// mustFromRat backs the infallible arithmetic methods. Overflow past int64
// in reduced form is unrepresentable state, so it panics the same way Money
// panics on a commodity mismatch.
func mustFromRat(r *big.Rat) Amount {
	a, err := amountFromRat(r)
	if err != nil {
		panic(err)
	}
	return a
}

// Rat returns the amount as a big.Rat.
func (a Amount) Rat() *big.Rat {
	if a.Denom == 0 {
		return big.NewRat(a.Num, 1)
	}
	return big.NewRat(a.Num, a.Denom)
}

// IsZero reports whether the amount equals zero.
func (a Amount) IsZero() bool { return a.Num == 0 }

// Sign returns -1, 0 or +1.
func (a Amount) Sign() int {
	switch {
	case a.Num < 0:
		return -1
	case a.Num > 0:
		return 1
	default:
		return 0
	}
}

// Neg returns the negated amount.
func (a Amount) Neg() Amount { return Amount{Num: -a.Num, Denom: a.Denom} }

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a.Num < 0 {
		return a.Neg()
	}
	return a
}

// Add returns a + b, reduced.
func (a Amount) Add(b Amount) Amount {
	return mustFromRat(new(big.Rat).Add(a.Rat(), b.Rat()))
}

// Sub returns a - b, reduced.
func (a Amount) Sub(b Amount) Amount {
	return mustFromRat(new(big.Rat).Sub(a.Rat(), b.Rat()))
}

// Mul returns a * b, reduced. Used for applying exchange rates.
func (a Amount) Mul(b Amount) Amount {
	return mustFromRat(new(big.Rat).Mul(a.Rat(), b.Rat()))
}

// Invert returns the reciprocal. Inverting zero is an error.
func (a Amount) Invert() (Amount, error) {
	if a.Num == 0 {
		return Amount{}, fmt.Errorf("inverting zero amount: %w", ErrInvalidArgument)
	}
	return amountFromRat(new(big.Rat).Inv(a.Rat()))
}

// Cmp compares a to b, returning -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.Rat().Cmp(b.Rat()) }

// Equal reports numeric equality.
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

// StringFixed renders the amount with the given number of decimal places.
// Rendering is the only place precision may be dropped; stored values stay
// exact.
func (a Amount) StringFixed(places int) string {
	return a.Rat().FloatString(places)
}

// String renders the reduced fraction, e.g. "11/10".
func (a Amount) String() string {
	if a.Denom == 1 {
		return fmt.Sprintf("%d", a.Num)
	}
	return fmt.Sprintf("%d/%d", a.Num, a.Denom)
}
