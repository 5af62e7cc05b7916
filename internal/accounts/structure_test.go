package accounts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/pocketbooks/internal/model"
)

func TestCreateHierarchy(t *testing.T) {
	f := newFixture(t)
	leaf, err := f.svc.CreateHierarchy("Assets:Bank:Checking", model.AccountTypeBank)
	require.NoError(t, err)

	got, err := f.svc.Get(leaf)
	require.NoError(t, err)
	assert.Equal(t, "Checking", got.Name)
	assert.Equal(t, "Assets:Bank:Checking", got.FullName)

	for _, fullName := range []string{"Assets", "Assets:Bank"} {
		a, err := f.svc.GetByFullName(fullName)
		require.NoError(t, err)
		assert.Equal(t, model.AccountTypeBank, a.Type)
	}
}

func TestCreateHierarchy_Idempotent(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.CreateHierarchy("Assets:Bank:Checking", model.AccountTypeBank)
	require.NoError(t, err)
	second, err := f.svc.CreateHierarchy("Assets:Bank:Checking", model.AccountTypeBank)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var n int
	require.NoError(t, f.db.QueryRow(
		`SELECT COUNT(*) FROM accounts WHERE type != ?`, model.AccountTypeRoot).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestCreateHierarchy_ReusesExistingPrefix(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateHierarchy("Assets:Bank:Checking", model.AccountTypeBank)
	require.NoError(t, err)
	savings, err := f.svc.CreateHierarchy("Assets:Bank:Savings", model.AccountTypeBank)
	require.NoError(t, err)

	got, err := f.svc.Get(savings)
	require.NoError(t, err)
	assert.Equal(t, "Assets:Bank:Savings", got.FullName)

	bank, err := f.svc.GetByFullName("Assets:Bank")
	require.NoError(t, err)
	assert.Equal(t, bank.UID, got.ParentUID)
}

func TestCreateHierarchy_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateHierarchy("  :  ", model.AccountTypeBank)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = f.svc.CreateHierarchy("Assets", model.AccountTypeRoot)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestEnsureOpeningBalanceAccount(t *testing.T) {
	f := newFixture(t)
	uid, err := f.svc.EnsureOpeningBalanceAccount(f.usd)
	require.NoError(t, err)

	got, err := f.svc.Get(uid)
	require.NoError(t, err)
	assert.Equal(t, "Equity:Opening Balances-USD", got.FullName)
	assert.Equal(t, model.AccountTypeEquity, got.Type)

	again, err := f.svc.EnsureOpeningBalanceAccount(f.usd)
	require.NoError(t, err)
	assert.Equal(t, uid, again)
}

func TestReassignDescendants(t *testing.T) {
	f := newFixture(t)
	old := f.save(t, "Old", model.AccountTypeAsset, "")
	child := f.save(t, "Child", model.AccountTypeBank, old.UID)
	grandchild := f.save(t, "Grandchild", model.AccountTypeBank, child.UID)
	next := f.save(t, "New", model.AccountTypeAsset, "")

	require.NoError(t, f.svc.ReassignDescendants(old.UID, next.UID))

	// Direct children move under the new parent; deeper descendants keep
	// their parent but pick up the new prefix.
	got, err := f.svc.Get(child.UID)
	require.NoError(t, err)
	assert.Equal(t, next.UID, got.ParentUID)
	assert.Equal(t, "New:Child", got.FullName)

	deep, err := f.svc.Get(grandchild.UID)
	require.NoError(t, err)
	assert.Equal(t, child.UID, deep.ParentUID)
	assert.Equal(t, "New:Child:Grandchild", deep.FullName)

	children, err := f.svc.ChildrenOf(old.UID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestReassignDescendants_RejectsCycle(t *testing.T) {
	f := newFixture(t)
	old := f.save(t, "Old", model.AccountTypeAsset, "")
	child := f.save(t, "Child", model.AccountTypeBank, old.UID)

	err := f.svc.ReassignDescendants(old.UID, child.UID)
	assert.ErrorIs(t, err, model.ErrAccountCycle)
}

func TestRecursiveDelete_RefusesRoot(t *testing.T) {
	f := newFixture(t)
	root, err := f.svc.CreateOrGetRoot()
	require.NoError(t, err)
	f.save(t, "Assets", model.AccountTypeAsset, "")

	assert.ErrorIs(t, f.svc.RecursiveDelete(root.UID), model.ErrRootAccount)

	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&n))
	assert.Equal(t, 2, n, "a refused delete leaves the book untouched")
}

func TestRecursiveDelete_RemovesSubtreeAndTransactions(t *testing.T) {
	f := newFixture(t)
	doomed := f.save(t, "Doomed", model.AccountTypeBank, "")
	inner := f.save(t, "Inner", model.AccountTypeBank, doomed.UID)
	survivor := f.save(t, "Survivor", model.AccountTypeExpense, "")

	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f.transfer(t, inner.UID, survivor.UID, 1000, 100, at)
	f.transfer(t, survivor.UID, survivor.UID, 500, 100, at)

	require.NoError(t, f.svc.RecursiveDelete(doomed.UID))

	_, err := f.svc.Get(doomed.UID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.svc.Get(inner.UID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	// The transaction touching the deleted subtree went away whole, taking
	// its survivor-side split with it; the unrelated one stays.
	var txs, splits int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&txs))
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM splits`).Scan(&splits))
	assert.Equal(t, 1, txs)
	assert.Equal(t, 2, splits)
}

func TestRecursiveDelete_ClearsTransferPointers(t *testing.T) {
	f := newFixture(t)
	doomed := f.save(t, "Doomed", model.AccountTypeBank, "")
	pointing := &model.Account{
		Name:                      "Pointing",
		Type:                      model.AccountTypeExpense,
		DefaultTransferAccountUID: doomed.UID,
	}
	require.NoError(t, f.svc.Save(pointing))

	require.NoError(t, f.svc.RecursiveDelete(doomed.UID))

	got, err := f.svc.Get(pointing.UID)
	require.NoError(t, err)
	assert.Empty(t, got.DefaultTransferAccountUID)
}
