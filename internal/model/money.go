package model

import "fmt"

// Money pairs an exact Amount with its Commodity. Arithmetic across
// commodities panics; conversion between commodities is the price table's
// job, not Money's.
type Money struct {
	Amount    Amount
	Commodity *Commodity
}

// NewMoney builds a Money value.
func NewMoney(a Amount, c *Commodity) Money {
	return Money{Amount: a, Commodity: c}
}

// ZeroMoney returns a zero value in the given commodity.
func ZeroMoney(c *Commodity) Money {
	return Money{Amount: AmountZero, Commodity: c}
}

// Add adds two Money values. Panics if commodities differ.
func (m Money) Add(other Money) Money {
	m.assertSameCommodity(other)
	return Money{Amount: m.Amount.Add(other.Amount), Commodity: m.Commodity}
}

// Sub subtracts another Money value. Panics if commodities differ.
func (m Money) Sub(other Money) Money {
	m.assertSameCommodity(other)
	return Money{Amount: m.Amount.Sub(other.Amount), Commodity: m.Commodity}
}

// Neg returns the negated value.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Commodity: m.Commodity}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// Equal reports whether amount and commodity both match.
func (m Money) Equal(other Money) bool {
	return m.commodityUID() == other.commodityUID() && m.Amount.Equal(other.Amount)
}

// String renders the value at the commodity's scale, e.g. "10.00 USD".
func (m Money) String() string {
	if m.Commodity == nil {
		return m.Amount.String()
	}
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(m.Commodity.Scale()), m.Commodity.Code)
}

func (m Money) commodityUID() string {
	if m.Commodity == nil {
		return ""
	}
	return m.Commodity.UID
}

func (m Money) assertSameCommodity(other Money) {
	if m.commodityUID() != other.commodityUID() {
		panic(fmt.Sprintf("money: commodity mismatch: %q != %q", m.commodityUID(), other.commodityUID()))
	}
}
