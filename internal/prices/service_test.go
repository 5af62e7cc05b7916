package prices

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocketbooks/internal/cache"
	"github.com/cleared-dev/pocketbooks/internal/commodities"
	"github.com/cleared-dev/pocketbooks/internal/db"
	"github.com/cleared-dev/pocketbooks/internal/id"
	"github.com/cleared-dev/pocketbooks/internal/model"
)

type fixture struct {
	db  *db.DB
	svc *Service
	usd *model.Commodity
	eur *model.Commodity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "book.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := commodities.NewService(store, cache.New())
	usd, err := reg.Resolve("USD")
	require.NoError(t, err)
	eur, err := reg.Resolve("EUR")
	require.NoError(t, err)

	return &fixture{db: store, svc: NewService(store), usd: usd, eur: eur}
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestRate_SameCommodity(t *testing.T) {
	f := newFixture(t)
	rate, ok, err := f.svc.Rate(f.usd.UID, f.usd.UID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.MustAmount(1, 1), rate)
}

func TestRate_Direct(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Save(&model.Price{
		CommodityUID: f.eur.UID,
		CurrencyUID:  f.usd.UID,
		Date:         date(2025, 6, 1),
		Rate:         model.MustAmount(11, 10),
	}))

	rate, ok, err := f.svc.Rate(f.eur.UID, f.usd.UID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.MustAmount(11, 10), rate)
}

func TestRate_ReciprocalInverted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Save(&model.Price{
		CommodityUID: f.eur.UID,
		CurrencyUID:  f.usd.UID,
		Date:         date(2025, 6, 1),
		Rate:         model.MustAmount(11, 10),
	}))

	// Asking for USD->EUR when only EUR->USD is stored inverts the pair.
	rate, ok, err := f.svc.Rate(f.usd.UID, f.eur.UID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.MustAmount(10, 11), rate)
}

func TestRate_MostRecentWins(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Save(&model.Price{
		CommodityUID: f.eur.UID,
		CurrencyUID:  f.usd.UID,
		Date:         date(2025, 1, 1),
		Rate:         model.MustAmount(12, 10),
	}))
	require.NoError(t, f.svc.Save(&model.Price{
		CommodityUID: f.eur.UID,
		CurrencyUID:  f.usd.UID,
		Date:         date(2025, 6, 1),
		Rate:         model.MustAmount(11, 10),
	}))

	rate, ok, err := f.svc.Rate(f.eur.UID, f.usd.UID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.MustAmount(11, 10), rate)
}

func TestRateOn_HistoricalLookup(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Save(&model.Price{
		CommodityUID: f.eur.UID,
		CurrencyUID:  f.usd.UID,
		Date:         date(2025, 1, 1),
		Rate:         model.MustAmount(12, 10),
	}))
	require.NoError(t, f.svc.Save(&model.Price{
		CommodityUID: f.eur.UID,
		CurrencyUID:  f.usd.UID,
		Date:         date(2025, 6, 1),
		Rate:         model.MustAmount(11, 10),
	}))

	rate, ok, err := f.svc.RateOn(f.eur.UID, f.usd.UID, date(2025, 3, 1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.MustAmount(12, 10), rate)
}

func TestRate_NoneStored(t *testing.T) {
	f := newFixture(t)
	_, ok, err := f.svc.Rate(f.eur.UID, f.usd.UID)
	require.NoError(t, err)
	assert.False(t, ok, "no stored rate must not be an error, just absent")
}

func TestRate_CorruptRowRejected(t *testing.T) {
	f := newFixture(t)
	// A non-positive stored numerator is data corruption: treated as no
	// rate available, never coerced.
	_, err := f.db.Exec(
		`INSERT INTO prices (uid, commodity_uid, currency_uid, date, value_num, value_denom)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id.New(), f.eur.UID, f.usd.UID, date(2025, 6, 1), -5, 10)
	require.NoError(t, err)

	_, ok, err := f.svc.Rate(f.eur.UID, f.usd.UID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSave_UpsertsSamePairAndDate(t *testing.T) {
	f := newFixture(t)
	day := date(2025, 6, 1)
	require.NoError(t, f.svc.Save(&model.Price{
		CommodityUID: f.eur.UID, CurrencyUID: f.usd.UID, Date: day,
		Rate: model.MustAmount(12, 10),
	}))
	require.NoError(t, f.svc.Save(&model.Price{
		CommodityUID: f.eur.UID, CurrencyUID: f.usd.UID, Date: day,
		Rate: model.MustAmount(11, 10),
	}))

	stored, err := f.svc.ForPair(f.eur.UID, f.usd.UID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.MustAmount(11, 10), model.MustAmount(stored[0].Rate.Num, stored[0].Rate.Denom))
}

func TestSave_RejectsNonPositiveRate(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Save(&model.Price{
		CommodityUID: f.eur.UID,
		CurrencyUID:  f.usd.UID,
		Rate:         model.Amount{Num: 0, Denom: 10},
	})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}
