package commands

import (
	"fmt"
	"path/filepath"

	"github.com/cleared-dev/pocketbooks/internal/accounts"
	"github.com/cleared-dev/pocketbooks/internal/cache"
	"github.com/cleared-dev/pocketbooks/internal/commodities"
	"github.com/cleared-dev/pocketbooks/internal/config"
	"github.com/cleared-dev/pocketbooks/internal/db"
	"github.com/cleared-dev/pocketbooks/internal/ledger"
	"github.com/cleared-dev/pocketbooks/internal/prices"
)

// book bundles the opened services for one ledger book.
type book struct {
	cfg         *config.Config
	db          *db.DB
	commodities *commodities.Service
	prices      *prices.Service
	ledger      *ledger.Service
	accounts    *accounts.Service
}

// openBook loads the config in dir and wires up the engine services over
// the book's database.
func openBook(dir string) (*book, error) {
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("not a pocketbooks book (is %s present?): %w", config.FileName, err)
	}

	dbPath := cfg.Book.DatabasePath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dir, dbPath)
	}
	store, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	c := cache.New()
	reg := commodities.NewService(store, c)
	pr := prices.NewService(store)
	led := ledger.NewService(store, reg, c)
	acc := accounts.NewService(store, reg, pr, led, c)

	return &book{
		cfg:         cfg,
		db:          store,
		commodities: reg,
		prices:      pr,
		ledger:      led,
		accounts:    acc,
	}, nil
}

func (b *book) close() {
	b.db.Close()
}
