// Package prices implements the price table: dated exchange-rate
// observations between commodity pairs, with transparent reciprocal lookup.
package prices

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cleared-dev/pocketbooks/internal/db"
	"github.com/cleared-dev/pocketbooks/internal/id"
	"github.com/cleared-dev/pocketbooks/internal/model"
)

// Service stores and resolves exchange rates.
type Service struct {
	db *db.DB
}

// NewService creates a price table over a backing store.
func NewService(store *db.DB) *Service {
	return &Service{db: store}
}

// Save stores a price observation. Saving a second rate for the same
// (commodity, currency, date) replaces the earlier one.
func (s *Service) Save(p *model.Price) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.UID == "" {
		p.UID = id.New()
	}
	if p.Date.IsZero() {
		p.Date = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO prices (uid, commodity_uid, currency_uid, date, value_num, value_denom, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(commodity_uid, currency_uid, date) DO UPDATE SET
		     value_num = excluded.value_num,
		     value_denom = excluded.value_denom,
		     source = excluded.source`,
		p.UID, p.CommodityUID, p.CurrencyUID, p.Date, p.Rate.Num, p.Rate.Denom, p.Source)
	if err != nil {
		return fmt.Errorf("saving price: %w", err)
	}
	return nil
}

// Rate returns the most recent conversion rate from one commodity to
// another. A commodity priced against itself is 1/1. When only the reverse
// direction is stored, the rate is inverted before returning. The boolean is
// false when no usable rate exists; that is not an error for the caller.
//
// No triangulation through an intermediate commodity is attempted when no
// direct or reciprocal rate exists.
func (s *Service) Rate(fromUID, toUID string) (model.Amount, bool, error) {
	return s.RateOn(fromUID, toUID, time.Time{})
}

// RateOn is Rate restricted to observations on or before a date. A zero date
// means "latest known".
func (s *Service) RateOn(fromUID, toUID string, date time.Time) (model.Amount, bool, error) {
	if fromUID == "" || toUID == "" {
		return model.Amount{}, false, fmt.Errorf("rate lookup: %w", model.ErrInvalidArgument)
	}
	if fromUID == toUID {
		return model.MustAmount(1, 1), true, nil
	}

	query := `SELECT commodity_uid, value_num, value_denom FROM prices
	          WHERE ((commodity_uid = ? AND currency_uid = ?)
	              OR (commodity_uid = ? AND currency_uid = ?))`
	args := []any{fromUID, toUID, toUID, fromUID}
	if !date.IsZero() {
		query += ` AND date <= ?`
		args = append(args, date)
	}
	query += ` ORDER BY date DESC LIMIT 1`

	var commodityUID string
	var num, denom int64
	err := s.db.QueryRow(query, args...).Scan(&commodityUID, &num, &denom)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Amount{}, false, nil
	}
	if err != nil {
		return model.Amount{}, false, fmt.Errorf("looking up rate: %w", err)
	}

	// A stored rate with a non-positive side is corrupt data; treat it as
	// no rate available, never coerce it.
	if num <= 0 || denom <= 0 {
		return model.Amount{}, false, nil
	}

	if commodityUID == fromUID {
		return model.MustAmount(num, denom), true, nil
	}
	// Stored in the reverse direction: invert numerator and denominator.
	return model.MustAmount(denom, num), true, nil
}

// ForPair returns all stored observations for a pair, newest first.
func (s *Service) ForPair(commodityUID, currencyUID string) ([]*model.Price, error) {
	rows, err := s.db.Query(
		`SELECT uid, commodity_uid, currency_uid, date, value_num, value_denom, source
		 FROM prices WHERE commodity_uid = ? AND currency_uid = ?
		 ORDER BY date DESC`, commodityUID, currencyUID)
	if err != nil {
		return nil, fmt.Errorf("listing prices: %w", err)
	}
	defer rows.Close()

	var out []*model.Price
	for rows.Next() {
		p := new(model.Price)
		var num, denom int64
		if err := rows.Scan(&p.UID, &p.CommodityUID, &p.CurrencyUID, &p.Date, &num, &denom, &p.Source); err != nil {
			return nil, fmt.Errorf("scanning price: %w", err)
		}
		p.Rate = model.Amount{Num: num, Denom: denom}
		out = append(out, p)
	}
	return out, rows.Err()
}
