// Package db manages the SQLite backing store and its atomic unit-of-work
// discipline. Every multi-row mutation in the engine runs inside Transaction.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DB wraps a SQLite connection.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) a SQLite database at path, enabling WAL mode and
// foreign key enforcement, and initializes the schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	sdb, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sdb.Ping(); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{db: sdb, path: path}
	if err := d.initSchema(); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// Query executes a query that returns rows.
func (d *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return d.db.Query(query, args...)
}

// QueryRow executes a query expected to return at most one row.
func (d *DB) QueryRow(query string, args ...any) *sql.Row {
	return d.db.QueryRow(query, args...)
}

// Exec executes a statement that doesn't return rows.
func (d *DB) Exec(query string, args ...any) (sql.Result, error) {
	return d.db.Exec(query, args...)
}

// Transaction executes fn inside a database transaction. If fn returns an
// error the transaction is rolled back and nothing is applied; otherwise it
// commits. A panic inside fn also rolls back before re-panicking.
func (d *DB) Transaction(fn func(*sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (d *DB) initSchema() error {
	_, err := d.db.Exec(Schema)
	return err
}
