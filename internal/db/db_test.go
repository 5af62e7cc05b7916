package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "book.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpen_InitializesSchema(t *testing.T) {
	d := openTest(t)
	for _, table := range []string{"commodities", "prices", "accounts", "transactions", "splits", "book_settings"} {
		var name string
		err := d.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestOpen_Reopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.db")
	d, err := Open(path)
	require.NoError(t, err)
	_, err = d.Exec(`INSERT INTO book_settings (key, value) VALUES ('a', 'b')`)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	defer d.Close()
	var v string
	require.NoError(t, d.QueryRow(`SELECT value FROM book_settings WHERE key = 'a'`).Scan(&v))
	assert.Equal(t, "b", v)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	d := openTest(t)
	boom := errors.New("boom")
	err := d.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO book_settings (key, value) VALUES ('k', 'v')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM book_settings`).Scan(&n))
	assert.Zero(t, n)
}

func TestTransaction_RollsBackOnPanic(t *testing.T) {
	d := openTest(t)
	assert.Panics(t, func() {
		d.Transaction(func(tx *sql.Tx) error {
			tx.Exec(`INSERT INTO book_settings (key, value) VALUES ('k', 'v')`)
			panic("boom")
		})
	})

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM book_settings`).Scan(&n))
	assert.Zero(t, n)
}

func TestTransaction_Commits(t *testing.T) {
	d := openTest(t)
	err := d.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO book_settings (key, value) VALUES ('k', 'v')`)
		return err
	})
	require.NoError(t, err)

	var v string
	require.NoError(t, d.QueryRow(`SELECT value FROM book_settings WHERE key = 'k'`).Scan(&v))
	assert.Equal(t, "v", v)
}
