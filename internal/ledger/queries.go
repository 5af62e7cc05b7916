package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/pocketbooks/internal/model"
)

const transactionColumns = `uid, description, notes, timestamp, commodity_uid,
	exported, template, scheduled_action_uid, modified_at`

const splitColumns = `uid, transaction_uid, account_uid, memo, type,
	value_num, value_denom, quantity_num, quantity_denom, reconcile_state, reconcile_date`

// Get returns a transaction with its splits loaded.
func (s *Service) Get(uid string) (*model.Transaction, error) {
	if uid == "" {
		return nil, fmt.Errorf("transaction UID: %w", model.ErrInvalidArgument)
	}
	row := s.db.QueryRow(
		`SELECT `+transactionColumns+` FROM transactions WHERE uid = ?`, uid)
	tx, err := scanTransaction(row.Scan)
	if err != nil {
		return nil, err
	}
	tx.Splits, err = s.splitsFor(tx.UID)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ListByAccount returns every transaction having at least one split in the
// account, newest first, with splits loaded.
func (s *Service) ListByAccount(accountUID string) ([]*model.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE uid IN (SELECT transaction_uid FROM splits WHERE account_uid = ?)
		 ORDER BY timestamp DESC`, accountUID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for account: %w", err)
	}
	return s.collect(rows)
}

// ModifiedSince returns transactions modified after the watermark, oldest
// first, for export collaborators.
func (s *Service) ModifiedSince(watermark time.Time) ([]*model.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE modified_at > ? ORDER BY modified_at ASC`, watermark)
	if err != nil {
		return nil, fmt.Errorf("listing modified transactions: %w", err)
	}
	return s.collect(rows)
}

// SearchDescriptions returns up to limit distinct transaction descriptions
// starting with prefix, for autocomplete.
func (s *Service) SearchDescriptions(prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := escapeLike(prefix) + "%"
	rows, err := s.db.Query(
		`SELECT DISTINCT description FROM transactions
		 WHERE description LIKE ? ESCAPE '\' AND description != ''
		 ORDER BY description LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching descriptions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning description: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SplitsForAccount returns the splits belonging to an account, optionally
// restricted to a time range (zero bounds mean unbounded).
func (s *Service) SplitsForAccount(accountUID string, start, end time.Time) ([]*model.Split, error) {
	// Both tables carry a uid column, so the split columns are qualified.
	query := `SELECT splits.uid, splits.transaction_uid, splits.account_uid, splits.memo,
	          splits.type, splits.value_num, splits.value_denom,
	          splits.quantity_num, splits.quantity_denom,
	          splits.reconcile_state, splits.reconcile_date
	          FROM splits
	          JOIN transactions ON transactions.uid = splits.transaction_uid
	          WHERE splits.account_uid = ? AND transactions.template = 0`
	args := []any{accountUID}
	if !start.IsZero() {
		query += ` AND transactions.timestamp >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		query += ` AND transactions.timestamp <= ?`
		args = append(args, end)
	}
	query += ` ORDER BY transactions.timestamp ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing splits for account: %w", err)
	}
	defer rows.Close()

	var out []*model.Split
	for rows.Next() {
		sp, err := scanSplit(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *Service) splitsFor(txUID string) ([]*model.Split, error) {
	rows, err := s.db.Query(
		`SELECT `+splitColumns+` FROM splits WHERE transaction_uid = ? ORDER BY uid`, txUID)
	if err != nil {
		return nil, fmt.Errorf("listing splits: %w", err)
	}
	defer rows.Close()

	var out []*model.Split
	for rows.Next() {
		sp, err := scanSplit(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *Service) collect(rows *sql.Rows) ([]*model.Transaction, error) {
	defer rows.Close()
	var out []*model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, tx := range out {
		splits, err := s.splitsFor(tx.UID)
		if err != nil {
			return nil, err
		}
		tx.Splits = splits
	}
	return out, nil
}

func scanTransaction(scan func(...any) error) (*model.Transaction, error) {
	tx := new(model.Transaction)
	err := scan(&tx.UID, &tx.Description, &tx.Notes, &tx.Time, &tx.CommodityUID,
		&tx.Exported, &tx.Template, &tx.ScheduledActionUID, &tx.ModifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning transaction: %w", err)
	}
	return tx, nil
}

func scanSplit(scan func(...any) error) (*model.Split, error) {
	sp := new(model.Split)
	var reconcileDate sql.NullTime
	err := scan(&sp.UID, &sp.TransactionUID, &sp.AccountUID, &sp.Memo, &sp.Type,
		&sp.Value.Num, &sp.Value.Denom, &sp.Quantity.Num, &sp.Quantity.Denom,
		&sp.ReconcileState, &reconcileDate)
	if err != nil {
		return nil, fmt.Errorf("scanning split: %w", err)
	}
	if reconcileDate.Valid {
		t := reconcileDate.Time
		sp.ReconcileDate = &t
	}
	return sp, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
