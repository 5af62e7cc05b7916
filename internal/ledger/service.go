// Package ledger implements the transaction/split ledger: atomic
// create/replace/delete of a transaction together with its splits, the
// zero-sum invariant with imbalance auto-splits, and split-level queries.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cleared-dev/pocketbooks/internal/cache"
	"github.com/cleared-dev/pocketbooks/internal/commodities"
	"github.com/cleared-dev/pocketbooks/internal/db"
	"github.com/cleared-dev/pocketbooks/internal/id"
	"github.com/cleared-dev/pocketbooks/internal/model"
)

// WriteMode selects how SaveTransaction treats a pre-existing row.
type WriteMode string

const (
	// ModeInsert fails if the transaction UID already exists.
	ModeInsert WriteMode = "insert"
	// ModeUpdate requires the transaction UID to exist.
	ModeUpdate WriteMode = "update"
	// ModeReplace inserts or overwrites.
	ModeReplace WriteMode = "replace"
)

// ImbalancePrefix names the per-commodity imbalance accounts, e.g.
// "Imbalance-USD".
const ImbalancePrefix = "Imbalance-"

// RootAccountName is the display name of the synthetic root. Its full name
// is empty so it sorts before every other account.
const RootAccountName = "Root Account"

// Service provides business logic for transactions and splits.
type Service struct {
	db          *db.DB
	commodities *commodities.Service
	cache       *cache.Cache
}

// NewService creates a ledger Service.
func NewService(store *db.DB, reg *commodities.Service, c *cache.Cache) *Service {
	return &Service{db: store, commodities: reg, cache: c}
}

// SaveTransaction persists a transaction and its full split set as one
// atomic unit. If the splits do not net to zero in the transaction's
// commodity, one imbalance split is synthesized to offset the residual,
// routed to the per-commodity imbalance account (created on demand under
// root). Under ModeUpdate/ModeReplace, previously-stored splits absent from
// the new set are deleted.
func (s *Service) SaveTransaction(tx *model.Transaction, mode WriteMode) error {
	if err := s.validate(tx); err != nil {
		return err
	}
	err := s.db.Transaction(func(stx *sql.Tx) error {
		return s.saveTx(stx, tx, mode)
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// BulkSave applies the SaveTransaction contract to every transaction as a
// single large atomic batch, then purges any transaction left with zero
// splits. Either all rows land or none do.
func (s *Service) BulkSave(txs []*model.Transaction, mode WriteMode) error {
	for _, tx := range txs {
		if err := s.validate(tx); err != nil {
			return err
		}
	}
	err := s.db.Transaction(func(stx *sql.Tx) error {
		for _, tx := range txs {
			if err := s.saveTx(stx, tx, mode); err != nil {
				return err
			}
		}
		return purgeEmptyTransactions(stx)
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// DeleteTransaction deletes a transaction and all of its splits.
func (s *Service) DeleteTransaction(uid string) error {
	if uid == "" {
		return fmt.Errorf("transaction UID: %w", model.ErrInvalidArgument)
	}
	err := s.db.Transaction(func(stx *sql.Tx) error {
		if _, err := stx.Exec(`DELETE FROM splits WHERE transaction_uid = ?`, uid); err != nil {
			return fmt.Errorf("deleting splits: %w", err)
		}
		res, err := stx.Exec(`DELETE FROM transactions WHERE uid = ?`, uid)
		if err != nil {
			return fmt.Errorf("deleting transaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("transaction %s: %w", uid, model.ErrNotFound)
		}
		return clearBalanceSnapshots(stx)
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// DeleteSplit deletes one split. If it was the last split of its
// transaction, the transaction is deleted too: no empty transaction may
// remain.
func (s *Service) DeleteSplit(uid string) error {
	if uid == "" {
		return fmt.Errorf("split UID: %w", model.ErrInvalidArgument)
	}
	err := s.db.Transaction(func(stx *sql.Tx) error {
		var txUID string
		err := stx.QueryRow(`SELECT transaction_uid FROM splits WHERE uid = ?`, uid).Scan(&txUID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("split %s: %w", uid, model.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("looking up split: %w", err)
		}
		if _, err := stx.Exec(`DELETE FROM splits WHERE uid = ?`, uid); err != nil {
			return fmt.Errorf("deleting split: %w", err)
		}
		var remaining int
		if err := stx.QueryRow(
			`SELECT COUNT(*) FROM splits WHERE transaction_uid = ?`, txUID).Scan(&remaining); err != nil {
			return fmt.Errorf("counting splits: %w", err)
		}
		if remaining == 0 {
			if _, err := stx.Exec(`DELETE FROM transactions WHERE uid = ?`, txUID); err != nil {
				return fmt.Errorf("deleting emptied transaction: %w", err)
			}
		}
		return clearBalanceSnapshots(stx)
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// DuplicateTransaction stores a copy of a transaction under fresh UIDs,
// timestamped now, and returns the copy.
func (s *Service) DuplicateTransaction(uid string) (*model.Transaction, error) {
	orig, err := s.Get(uid)
	if err != nil {
		return nil, err
	}
	dup := *orig
	dup.UID = id.New()
	dup.Time = time.Now()
	dup.Exported = false
	dup.Splits = make([]*model.Split, len(orig.Splits))
	for i, sp := range orig.Splits {
		c := *sp
		c.UID = id.New()
		c.TransactionUID = dup.UID
		dup.Splits[i] = &c
	}
	if err := s.SaveTransaction(&dup, ModeInsert); err != nil {
		return nil, err
	}
	return &dup, nil
}

// BalanceOf sums the values of this transaction's splits that belong to the
// given account, signed by split type.
func (s *Service) BalanceOf(transactionUID, accountUID string) (model.Amount, error) {
	tx, err := s.Get(transactionUID)
	if err != nil {
		return model.Amount{}, err
	}
	sum := model.AmountZero
	for _, sp := range tx.Splits {
		if sp.AccountUID == accountUID {
			sum = sum.Add(sp.SignedValue())
		}
	}
	return sum, nil
}

func (s *Service) validate(tx *model.Transaction) error {
	if tx == nil || tx.UID == "" {
		return fmt.Errorf("transaction UID: %w", model.ErrInvalidArgument)
	}
	if len(tx.Splits) == 0 {
		return fmt.Errorf("transaction %s has no splits: %w", tx.UID, model.ErrInvalidArgument)
	}
	if tx.CommodityUID == "" {
		return fmt.Errorf("transaction %s commodity: %w", tx.UID, model.ErrInvalidArgument)
	}
	for _, sp := range tx.Splits {
		if sp.AccountUID == "" {
			return fmt.Errorf("split %s account: %w", sp.UID, model.ErrInvalidArgument)
		}
	}
	return nil
}

// saveTx is the in-transaction body shared by SaveTransaction and BulkSave.
func (s *Service) saveTx(stx *sql.Tx, tx *model.Transaction, mode WriteMode) error {
	// Referential integrity first: a split naming a nonexistent account
	// fails the whole unit before any row is written.
	for _, sp := range tx.Splits {
		if err := accountExists(stx, sp.AccountUID); err != nil {
			return err
		}
	}

	residual := tx.Imbalance()
	if !residual.IsZero() {
		imbalance, err := s.imbalanceSplit(stx, tx, residual)
		if err != nil {
			return err
		}
		tx.Splits = append(tx.Splits, imbalance)
	}

	if tx.Time.IsZero() {
		tx.Time = time.Now()
	}
	tx.ModifiedAt = time.Now()

	if err := upsertTransaction(stx, tx, mode); err != nil {
		return err
	}

	// Orphan cleanup: drop previously-stored splits not in the new set.
	if mode != ModeInsert {
		if err := deleteOrphanSplits(stx, tx); err != nil {
			return err
		}
	}

	for _, sp := range tx.Splits {
		if sp.UID == "" {
			sp.UID = id.New()
		}
		sp.TransactionUID = tx.UID
		if sp.ReconcileState == "" {
			sp.ReconcileState = model.ReconcileNone
		}
		if err := upsertSplit(stx, sp); err != nil {
			return err
		}
	}

	// Stored all-time balance snapshots are stale now; clearing all of
	// them over-invalidates but can never under-invalidate.
	return clearBalanceSnapshots(stx)
}

// imbalanceSplit synthesizes the split offsetting a nonzero residual,
// routed to the per-commodity imbalance account. It is always inserted
// fresh, even under update/replace, since it did not previously exist.
func (s *Service) imbalanceSplit(stx *sql.Tx, tx *model.Transaction, residual model.Amount) (*model.Split, error) {
	commodity, err := s.commodities.Get(tx.CommodityUID)
	if err != nil {
		return nil, fmt.Errorf("transaction %s commodity: %w", tx.UID, err)
	}
	accountUID, err := ensureImbalanceAccount(stx, commodity)
	if err != nil {
		return nil, err
	}
	splitType := model.SplitCredit
	if residual.Sign() < 0 {
		splitType = model.SplitDebit
	}
	magnitude := residual.Abs()
	return &model.Split{
		UID:            id.New(),
		TransactionUID: tx.UID,
		AccountUID:     accountUID,
		Type:           splitType,
		Value:          magnitude,
		Quantity:       magnitude,
		ReconcileState: model.ReconcileNone,
	}, nil
}

func upsertTransaction(stx *sql.Tx, tx *model.Transaction, mode WriteMode) error {
	switch mode {
	case ModeInsert:
		_, err := stx.Exec(
			`INSERT INTO transactions
			 (uid, description, notes, timestamp, commodity_uid, exported, template, scheduled_action_uid, modified_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.UID, tx.Description, tx.Notes, tx.Time, tx.CommodityUID,
			tx.Exported, tx.Template, tx.ScheduledActionUID, tx.ModifiedAt)
		if err != nil {
			return fmt.Errorf("inserting transaction %s: %w", tx.UID, err)
		}
	case ModeUpdate:
		res, err := stx.Exec(
			`UPDATE transactions SET description = ?, notes = ?, timestamp = ?, commodity_uid = ?,
			 exported = ?, template = ?, scheduled_action_uid = ?, modified_at = ? WHERE uid = ?`,
			tx.Description, tx.Notes, tx.Time, tx.CommodityUID,
			tx.Exported, tx.Template, tx.ScheduledActionUID, tx.ModifiedAt, tx.UID)
		if err != nil {
			return fmt.Errorf("updating transaction %s: %w", tx.UID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("transaction %s: %w", tx.UID, model.ErrNotFound)
		}
	case ModeReplace:
		_, err := stx.Exec(
			`INSERT INTO transactions
			 (uid, description, notes, timestamp, commodity_uid, exported, template, scheduled_action_uid, modified_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(uid) DO UPDATE SET
			     description = excluded.description,
			     notes = excluded.notes,
			     timestamp = excluded.timestamp,
			     commodity_uid = excluded.commodity_uid,
			     exported = excluded.exported,
			     template = excluded.template,
			     scheduled_action_uid = excluded.scheduled_action_uid,
			     modified_at = excluded.modified_at`,
			tx.UID, tx.Description, tx.Notes, tx.Time, tx.CommodityUID,
			tx.Exported, tx.Template, tx.ScheduledActionUID, tx.ModifiedAt)
		if err != nil {
			return fmt.Errorf("replacing transaction %s: %w", tx.UID, err)
		}
	default:
		return fmt.Errorf("write mode %q: %w", mode, model.ErrInvalidArgument)
	}
	return nil
}

func upsertSplit(stx *sql.Tx, sp *model.Split) error {
	_, err := stx.Exec(
		`INSERT INTO splits
		 (uid, transaction_uid, account_uid, memo, type, value_num, value_denom,
		  quantity_num, quantity_denom, reconcile_state, reconcile_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
		     transaction_uid = excluded.transaction_uid,
		     account_uid = excluded.account_uid,
		     memo = excluded.memo,
		     type = excluded.type,
		     value_num = excluded.value_num,
		     value_denom = excluded.value_denom,
		     quantity_num = excluded.quantity_num,
		     quantity_denom = excluded.quantity_denom,
		     reconcile_state = excluded.reconcile_state,
		     reconcile_date = excluded.reconcile_date`,
		sp.UID, sp.TransactionUID, sp.AccountUID, sp.Memo, sp.Type,
		sp.Value.Num, sp.Value.Denom, sp.Quantity.Num, sp.Quantity.Denom,
		sp.ReconcileState, sp.ReconcileDate)
	if err != nil {
		return fmt.Errorf("saving split %s: %w", sp.UID, err)
	}
	return nil
}

func deleteOrphanSplits(stx *sql.Tx, tx *model.Transaction) error {
	keep := make(map[string]bool, len(tx.Splits))
	for _, sp := range tx.Splits {
		keep[sp.UID] = true
	}
	rows, err := stx.Query(`SELECT uid FROM splits WHERE transaction_uid = ?`, tx.UID)
	if err != nil {
		return fmt.Errorf("listing stored splits: %w", err)
	}
	var orphans []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			rows.Close()
			return fmt.Errorf("scanning split UID: %w", err)
		}
		if !keep[uid] {
			orphans = append(orphans, uid)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, uid := range orphans {
		if _, err := stx.Exec(`DELETE FROM splits WHERE uid = ?`, uid); err != nil {
			return fmt.Errorf("deleting orphan split %s: %w", uid, err)
		}
	}
	return nil
}

func purgeEmptyTransactions(stx *sql.Tx) error {
	_, err := stx.Exec(
		`DELETE FROM transactions
		 WHERE uid NOT IN (SELECT DISTINCT transaction_uid FROM splits)`)
	if err != nil {
		return fmt.Errorf("purging empty transactions: %w", err)
	}
	return nil
}

// ensureImbalanceAccount returns the per-commodity imbalance account,
// creating it (and the root, if absent) inside the current unit of work.
func ensureImbalanceAccount(stx *sql.Tx, commodity *model.Commodity) (string, error) {
	name := ImbalancePrefix + commodity.Code
	var uid string
	err := stx.QueryRow(`SELECT uid FROM accounts WHERE full_name = ?`, name).Scan(&uid)
	if err == nil {
		return uid, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("looking up imbalance account: %w", err)
	}

	rootUID, err := EnsureRoot(stx, commodity.UID)
	if err != nil {
		return "", err
	}
	uid = id.New()
	_, err = stx.Exec(
		`INSERT INTO accounts (uid, name, full_name, type, commodity_uid, parent_uid, hidden)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		uid, name, name, model.AccountTypeBank, commodity.UID, rootUID)
	if err != nil {
		return "", fmt.Errorf("creating imbalance account %s: %w", name, err)
	}
	return uid, nil
}

// EnsureRoot returns the single root account's UID, creating the root if
// the book does not have one yet. The root's full name is empty so it sorts
// before every other account. It runs inside the caller's unit of work.
func EnsureRoot(stx *sql.Tx, commodityUID string) (string, error) {
	var uid string
	err := stx.QueryRow(
		`SELECT uid FROM accounts WHERE type = ?`, model.AccountTypeRoot).Scan(&uid)
	if err == nil {
		return uid, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("looking up root account: %w", err)
	}
	uid = id.New()
	_, err = stx.Exec(
		`INSERT INTO accounts (uid, name, full_name, type, commodity_uid, parent_uid, hidden)
		 VALUES (?, ?, '', ?, ?, NULL, 1)`,
		uid, RootAccountName, model.AccountTypeRoot, commodityUID)
	if err != nil {
		return "", fmt.Errorf("creating root account: %w", err)
	}
	return uid, nil
}

// accountExists verifies a split's account reference and rejects accounts
// that cannot hold splits: placeholders and the root.
func accountExists(stx *sql.Tx, uid string) error {
	var placeholder bool
	var accountType model.AccountType
	err := stx.QueryRow(
		`SELECT placeholder, type FROM accounts WHERE uid = ?`, uid).Scan(&placeholder, &accountType)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("account %s: %w", uid, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking account %s: %w", uid, err)
	}
	if placeholder {
		return fmt.Errorf("placeholder account %s cannot hold splits: %w", uid, model.ErrInvalidArgument)
	}
	if accountType == model.AccountTypeRoot {
		return fmt.Errorf("root account cannot hold splits: %w", model.ErrInvalidArgument)
	}
	return nil
}

func clearBalanceSnapshots(stx *sql.Tx) error {
	if _, err := stx.Exec(
		`UPDATE accounts SET balance_num = NULL, balance_denom = NULL
		 WHERE balance_num IS NOT NULL`); err != nil {
		return fmt.Errorf("clearing balance snapshots: %w", err)
	}
	return nil
}

func (s *Service) invalidate() {
	s.cache.Invalidate()
}
