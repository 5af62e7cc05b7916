package model

import (
	"fmt"
	"time"
)

// Price is one exchange-rate observation between a commodity and a currency
// on a date. The rate is an exact positive rational.
type Price struct {
	UID          string
	CommodityUID string
	CurrencyUID  string
	Date         time.Time
	Rate         Amount
	Source       string // e.g. "user:price-editor"; passthrough
}

// Validate rejects corrupt rates. A stored rate with a non-positive
// numerator or denominator is never coerced.
func (p *Price) Validate() error {
	if p.CommodityUID == "" || p.CurrencyUID == "" {
		return fmt.Errorf("price commodity/currency: %w", ErrInvalidArgument)
	}
	if p.Rate.Num <= 0 || p.Rate.Denom <= 0 {
		return fmt.Errorf("price rate %s: %w", p.Rate, ErrInvalidArgument)
	}
	return nil
}
