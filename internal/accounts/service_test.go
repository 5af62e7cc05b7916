package accounts

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
	"github.com/cleared-dev/pocketbooks/internal/ledger"
	"github.com/cleared-dev/pocketbooks/internal/model"
	"github.com/cleared-dev/pocketbooks/internal/prices"
)

type fixture struct {
	db     *db.DB
	reg    *commodities.Service
	prices *prices.Service
	ledger *ledger.Service
	svc    *Service
	usd    *model.Commodity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "book.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	c := cache.New()
	reg := commodities.NewService(store, c)
	require.NoError(t, reg.SetDefaultCurrency("USD"))
	usd, err := reg.Resolve("USD")
	require.NoError(t, err)
	pr := prices.NewService(store)
	led := ledger.NewService(store, reg, c)

	return &fixture{
		db:     store,
		reg:    reg,
		prices: pr,
		ledger: led,
		svc:    NewService(store, reg, pr, led, c),
		usd:    usd,
	}
}

// save creates an account through the service and returns it.
func (f *fixture) save(t *testing.T, name string, typ model.AccountType, parentUID string) *model.Account {
	t.Helper()
	a := &model.Account{Name: name, Type: typ, ParentUID: parentUID, CommodityUID: f.usd.UID}
	require.NoError(t, f.svc.Save(a))
	return a
}

// transfer records a balanced two-split transaction moving an amount from one
// account to another.
func (f *fixture) transfer(t *testing.T, fromUID, toUID string, num, denom int64, at time.Time) {
	t.Helper()
	a := model.MustAmount(num, denom)
	tx := &model.Transaction{
		UID:          id.New(),
		Description:  "transfer",
		Time:         at,
		CommodityUID: f.usd.UID,
		Splits: []*model.Split{
			{UID: id.New(), AccountUID: toUID, Type: model.SplitDebit, Value: a, Quantity: a},
			{UID: id.New(), AccountUID: fromUID, Type: model.SplitCredit, Value: a, Quantity: a},
		},
	}
	require.NoError(t, f.ledger.SaveTransaction(tx, ledger.ModeInsert))
}

func TestCreateOrGetRoot_Idempotent(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.CreateOrGetRoot()
	require.NoError(t, err)
	assert.True(t, first.IsRoot())
	assert.Empty(t, first.FullName)
	assert.True(t, first.Hidden)

	second, err := f.svc.CreateOrGetRoot()
	require.NoError(t, err)
	assert.Equal(t, first.UID, second.UID)

	var n int
	require.NoError(t, f.db.QueryRow(
		`SELECT COUNT(*) FROM accounts WHERE type = ?`, model.AccountTypeRoot).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSave_AttachesToRootByDefault(t *testing.T) {
	f := newFixture(t)
	a := f.save(t, "Assets", model.AccountTypeAsset, "")

	root, err := f.svc.CreateOrGetRoot()
	require.NoError(t, err)
	got, err := f.svc.Get(a.UID)
	require.NoError(t, err)
	assert.Equal(t, root.UID, got.ParentUID)
	assert.Equal(t, "Assets", got.FullName)
}

func TestSave_DerivesFullNameFromParentChain(t *testing.T) {
	f := newFixture(t)
	assets := f.save(t, "Assets", model.AccountTypeAsset, "")
	bank := f.save(t, "Bank", model.AccountTypeBank, assets.UID)
	checking := f.save(t, "Checking", model.AccountTypeBank, bank.UID)

	got, err := f.svc.Get(checking.UID)
	require.NoError(t, err)
	assert.Equal(t, "Assets:Bank:Checking", got.FullName)

	resolved, err := f.svc.ResolveFullName(got)
	require.NoError(t, err)
	assert.Equal(t, got.FullName, resolved)
}

func TestSave_RenameCascadesToDescendants(t *testing.T) {
	f := newFixture(t)
	assets := f.save(t, "Assets", model.AccountTypeAsset, "")
	bank := f.save(t, "Bank", model.AccountTypeBank, assets.UID)
	checking := f.save(t, "Checking", model.AccountTypeBank, bank.UID)

	assets.Name = "Wealth"
	require.NoError(t, f.svc.Save(assets))

	got, err := f.svc.Get(checking.UID)
	require.NoError(t, err)
	assert.Equal(t, "Wealth:Bank:Checking", got.FullName)
	mid, err := f.svc.Get(bank.UID)
	require.NoError(t, err)
	assert.Equal(t, "Wealth:Bank", mid.FullName)
}

func TestSave_RejectsCycles(t *testing.T) {
	f := newFixture(t)
	assets := f.save(t, "Assets", model.AccountTypeAsset, "")
	bank := f.save(t, "Bank", model.AccountTypeBank, assets.UID)

	assets.ParentUID = bank.UID
	assert.ErrorIs(t, f.svc.Save(assets), model.ErrAccountCycle)

	assets.ParentUID = assets.UID
	assert.ErrorIs(t, f.svc.Save(assets), model.ErrAccountCycle)
}

func TestSave_Validation(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.svc.Save(&model.Account{Name: "  ", Type: model.AccountTypeAsset}),
		model.ErrInvalidArgument)
	assert.ErrorIs(t, f.svc.Save(&model.Account{Name: "X", Type: "NONSENSE"}),
		model.ErrInvalidArgument)
	assert.ErrorIs(t, f.svc.Save(&model.Account{Name: "X", Type: model.AccountTypeRoot}),
		model.ErrRootAccount)
}

func TestGetByFullName(t *testing.T) {
	f := newFixture(t)
	assets := f.save(t, "Assets", model.AccountTypeAsset, "")
	f.save(t, "Bank", model.AccountTypeBank, assets.UID)

	got, err := f.svc.GetByFullName("Assets:Bank")
	require.NoError(t, err)
	assert.Equal(t, "Bank", got.Name)

	_, err = f.svc.GetByFullName("No:Such:Account")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAll_HiddenFiltering(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrGetRoot()
	require.NoError(t, err)
	f.save(t, "Visible", model.AccountTypeAsset, "")
	hidden := &model.Account{Name: "Secret", Type: model.AccountTypeAsset, Hidden: true}
	require.NoError(t, f.svc.Save(hidden))

	visible, err := f.svc.All(false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Visible", visible[0].Name)

	// The hidden root sorts first on its empty full name.
	everything, err := f.svc.All(true)
	require.NoError(t, err)
	require.Len(t, everything, 3)
	assert.True(t, everything[0].IsRoot())
}

func TestChildrenOfAndTopLevel(t *testing.T) {
	f := newFixture(t)
	assets := f.save(t, "Assets", model.AccountTypeAsset, "")
	expenses := f.save(t, "Expenses", model.AccountTypeExpense, "")
	f.save(t, "Bank", model.AccountTypeBank, assets.UID)

	top, err := f.svc.TopLevel()
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Assets", top[0].Name)
	assert.Equal(t, "Expenses", top[1].Name)

	children, err := f.svc.ChildrenOf(assets.UID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Bank", children[0].Name)

	children, err = f.svc.ChildrenOf(expenses.UID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestDescendantsOf_ParentsBeforeChildren(t *testing.T) {
	f := newFixture(t)
	assets := f.save(t, "Assets", model.AccountTypeAsset, "")
	bank := f.save(t, "Bank", model.AccountTypeBank, assets.UID)
	cashbox := f.save(t, "Cashbox", model.AccountTypeCash, assets.UID)
	checking := f.save(t, "Checking", model.AccountTypeBank, bank.UID)

	got, err := f.svc.DescendantsOf(assets.UID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.ElementsMatch(t, []string{bank.UID, cashbox.UID, checking.UID}, got)
	// Checking is one level deeper than its parent, so it comes last.
	assert.Equal(t, checking.UID, got[2])
}

func TestFavorites(t *testing.T) {
	f := newFixture(t)
	f.save(t, "Plain", model.AccountTypeAsset, "")
	fav := &model.Account{Name: "Starred", Type: model.AccountTypeBank, Favorite: true}
	require.NoError(t, f.svc.Save(fav))

	got, err := f.svc.Favorites()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Starred", got[0].Name)
}

func TestListRecent(t *testing.T) {
	f := newFixture(t)
	checking := f.save(t, "Checking", model.AccountTypeBank, "")
	groceries := f.save(t, "Groceries", model.AccountTypeExpense, "")
	rent := f.save(t, "Rent", model.AccountTypeExpense, "")

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f.transfer(t, checking.UID, rent.UID, 100000, 100, base)
	f.transfer(t, checking.UID, groceries.UID, 1000, 100, base.AddDate(0, 0, 1))

	got, err := f.svc.ListRecent(2)
	require.NoError(t, err)
	uids := make([]string, len(got))
	for i, a := range got {
		uids[i] = a.UID
	}
	assert.ElementsMatch(t, []string{checking.UID, groceries.UID}, uids)
}
