package model

// Namespace groups commodities by kind.
type Namespace string

const (
	NamespaceCurrency Namespace = "CURRENCY"
	NamespaceSecurity Namespace = "SECURITY"
)

// Commodity is a currency or tradable unit with a fixed fractional precision.
// Once referenced by historical data it is immutable.
type Commodity struct {
	UID              string
	Code             string // ISO-like mnemonic, e.g. "USD"
	Symbol           string // display symbol, e.g. "$"; falls back to Code
	Namespace        Namespace
	SmallestFraction int64 // denominator granularity, e.g. 100 for cents
}

// Scale returns the number of decimal places implied by SmallestFraction.
// 100 -> 2, 1000 -> 3, 1 -> 0.
func (c *Commodity) Scale() int {
	scale := 0
	for f := c.SmallestFraction; f > 1; f /= 10 {
		scale++
	}
	return scale
}

// DisplaySymbol returns the symbol, or the code when no symbol is set.
func (c *Commodity) DisplaySymbol() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	return c.Code
}
