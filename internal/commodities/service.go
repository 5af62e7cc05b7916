// Package commodities implements the commodity registry: the canonical list
// of currencies and securities, resolved by code or UID. The registry is an
// explicit instance threaded to its consumers; there is no ambient global
// currency state.
package commodities

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cleared-dev/pocketbooks/internal/cache"
	"github.com/cleared-dev/pocketbooks/internal/db"
	"github.com/cleared-dev/pocketbooks/internal/id"
	"github.com/cleared-dev/pocketbooks/internal/model"
)

// FallbackCurrency is the hard-coded last resort for Default.
const FallbackCurrency = "USD"

const defaultCurrencyKey = "default_currency"

// Service is the commodity registry.
type Service struct {
	db    *db.DB
	cache *cache.Cache
}

// NewService creates a commodity registry over a backing store.
func NewService(store *db.DB, c *cache.Cache) *Service {
	return &Service{db: store, cache: c}
}

// Resolve returns the currency with the given ISO-like code. Well-known
// currencies are created on first resolution; an unknown code yields
// ErrNotFound rather than an auto-created commodity.
func (s *Service) Resolve(code string) (*model.Commodity, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("commodity code: %w", model.ErrInvalidArgument)
	}

	if v, ok := s.cache.GetCommodity(code); ok {
		return v.(*model.Commodity), nil
	}

	c, err := s.lookupByCode(code)
	if errors.Is(err, model.ErrNotFound) {
		iso, known := isoCurrencies[code]
		if !known {
			return nil, fmt.Errorf("commodity %q: %w", code, model.ErrNotFound)
		}
		c = &model.Commodity{
			UID:              id.New(),
			Code:             code,
			Symbol:           iso.symbol,
			Namespace:        model.NamespaceCurrency,
			SmallestFraction: iso.fraction,
		}
		if err := s.insert(c); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	s.cache.SetCommodity(code, c)
	return c, nil
}

// Get returns the commodity with the given UID. An unknown UID is a
// consistency violation for the caller: every stored reference must resolve.
func (s *Service) Get(uid string) (*model.Commodity, error) {
	if uid == "" {
		return nil, fmt.Errorf("commodity UID: %w", model.ErrInvalidArgument)
	}
	row := s.db.QueryRow(
		`SELECT uid, code, symbol, namespace, smallest_fraction FROM commodities WHERE uid = ?`, uid)
	return scanCommodity(row)
}

// Default returns the book's default currency: the persisted preference if
// set, else the locale-derived currency, else the hard-coded fallback.
func (s *Service) Default() (*model.Commodity, error) {
	code := s.preferredCode()
	c, err := s.Resolve(code)
	if errors.Is(err, model.ErrNotFound) && code != FallbackCurrency {
		return s.Resolve(FallbackCurrency)
	}
	return c, err
}

// SetDefaultCurrency persists the default-currency preference.
func (s *Service) SetDefaultCurrency(code string) error {
	if _, err := s.Resolve(code); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO book_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		defaultCurrencyKey, strings.ToUpper(code))
	if err != nil {
		return fmt.Errorf("saving default currency: %w", err)
	}
	s.cache.Invalidate()
	return nil
}

// Save stores a commodity that is not in the well-known currency table, such
// as a security. The code must be unique within its namespace.
func (s *Service) Save(c *model.Commodity) error {
	if c.Code == "" || c.SmallestFraction <= 0 {
		return fmt.Errorf("commodity %q: %w", c.Code, model.ErrInvalidArgument)
	}
	if c.UID == "" {
		c.UID = id.New()
	}
	if c.Namespace == "" {
		c.Namespace = model.NamespaceCurrency
	}
	if err := s.insert(c); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// All returns every registered commodity, currencies first, by code.
func (s *Service) All() ([]*model.Commodity, error) {
	rows, err := s.db.Query(
		`SELECT uid, code, symbol, namespace, smallest_fraction FROM commodities
		 ORDER BY namespace, code`)
	if err != nil {
		return nil, fmt.Errorf("listing commodities: %w", err)
	}
	defer rows.Close()

	var out []*model.Commodity
	for rows.Next() {
		c := new(model.Commodity)
		if err := rows.Scan(&c.UID, &c.Code, &c.Symbol, &c.Namespace, &c.SmallestFraction); err != nil {
			return nil, fmt.Errorf("scanning commodity: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Service) preferredCode() string {
	var code string
	err := s.db.QueryRow(
		`SELECT value FROM book_settings WHERE key = ?`, defaultCurrencyKey).Scan(&code)
	if err == nil && code != "" {
		return code
	}
	if code := localeCurrency(); code != "" {
		return code
	}
	return FallbackCurrency
}

func (s *Service) lookupByCode(code string) (*model.Commodity, error) {
	row := s.db.QueryRow(
		`SELECT uid, code, symbol, namespace, smallest_fraction FROM commodities
		 WHERE code = ? AND namespace = ?`, code, model.NamespaceCurrency)
	return scanCommodity(row)
}

func (s *Service) insert(c *model.Commodity) error {
	_, err := s.db.Exec(
		`INSERT INTO commodities (uid, code, symbol, namespace, smallest_fraction)
		 VALUES (?, ?, ?, ?, ?)`,
		c.UID, c.Code, c.Symbol, c.Namespace, c.SmallestFraction)
	if err != nil {
		return fmt.Errorf("inserting commodity %s: %w", c.Code, err)
	}
	return nil
}

func scanCommodity(row *sql.Row) (*model.Commodity, error) {
	c := new(model.Commodity)
	err := row.Scan(&c.UID, &c.Code, &c.Symbol, &c.Namespace, &c.SmallestFraction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning commodity: %w", err)
	}
	return c, nil
}

// localeCurrency derives a currency code from the environment locale, e.g.
// "en_GB.UTF-8" -> "GBP". Returns "" when no mapping applies.
func localeCurrency() string {
	for _, env := range []string{"LC_MONETARY", "LC_ALL", "LANG"} {
		locale := os.Getenv(env)
		if locale == "" {
			continue
		}
		if i := strings.IndexAny(locale, ".@"); i >= 0 {
			locale = locale[:i]
		}
		parts := strings.Split(locale, "_")
		if len(parts) != 2 {
			continue
		}
		if code, ok := regionCurrencies[strings.ToUpper(parts[1])]; ok {
			return code
		}
	}
	return ""
}
