package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/pocketbooks/internal/id"
	"github.com/cleared-dev/pocketbooks/internal/ledger"
	"github.com/cleared-dev/pocketbooks/internal/model"
)

// CreateHierarchy splits a colon-delimited path like "Assets:Bank:Checking"
// into segments and creates each missing prefix as an account of the given
// type, parented under the previous segment (the root for the first).
// Existing prefixes are reused. Returns the UID of the final segment.
// Running it twice with the same path is a no-op returning the same UID.
func (s *Service) CreateHierarchy(path string, accountType model.AccountType) (string, error) {
	def, err := s.commodities.Default()
	if err != nil {
		return "", err
	}
	return s.createHierarchy(path, accountType, def.UID)
}

func (s *Service) createHierarchy(path string, accountType model.AccountType, commodityUID string) (string, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return "", fmt.Errorf("account path %q: %w", path, model.ErrInvalidArgument)
	}
	if !accountType.Valid() || accountType == model.AccountTypeRoot {
		return "", fmt.Errorf("account type %q: %w", accountType, model.ErrInvalidArgument)
	}

	var leafUID string
	err := s.db.Transaction(func(stx *sql.Tx) error {
		parentUID, err := ledger.EnsureRoot(stx, commodityUID)
		if err != nil {
			return err
		}
		fullName := ""
		for _, segment := range segments {
			fullName = JoinFullName(fullName, segment)
			var uid string
			err := stx.QueryRow(`SELECT uid FROM accounts WHERE full_name = ?`, fullName).Scan(&uid)
			if errors.Is(err, sql.ErrNoRows) {
				uid = id.New()
				a := &model.Account{
					UID:          uid,
					Name:         segment,
					FullName:     fullName,
					Type:         accountType,
					CommodityUID: commodityUID,
					ParentUID:    parentUID,
				}
				if err := upsertAccount(stx, a); err != nil {
					return err
				}
			} else if err != nil {
				return fmt.Errorf("looking up %q: %w", fullName, err)
			}
			parentUID = uid
		}
		leafUID = parentUID
		return nil
	})
	if err != nil {
		return "", err
	}
	s.cache.Invalidate()
	return leafUID, nil
}

// EnsureOpeningBalanceAccount returns the per-commodity opening-balance
// account under Equity, creating the path on demand.
func (s *Service) EnsureOpeningBalanceAccount(commodity *model.Commodity) (string, error) {
	path := "Equity" + model.FullNameSeparator + "Opening Balances-" + commodity.Code
	return s.createHierarchy(path, model.AccountTypeEquity, commodity.UID)
}

// ReassignDescendants moves every descendant of oldParent under newParent:
// direct children are reparented to newParent, indirect descendants keep
// their immediate parent but have their fully-qualified names recomputed.
// Direct children are processed before the descendants whose names derive
// from them. One atomic unit.
func (s *Service) ReassignDescendants(oldParentUID, newParentUID string) error {
	if oldParentUID == "" || newParentUID == "" {
		return fmt.Errorf("reassign parents: %w", model.ErrInvalidArgument)
	}
	if oldParentUID == newParentUID {
		return nil
	}

	err := s.db.Transaction(func(stx *sql.Tx) error {
		newParent, err := getAccountTx(stx, newParentUID)
		if err != nil {
			return fmt.Errorf("new parent: %w", err)
		}

		// The new parent must not sit inside the subtree being moved.
		descendants, err := descendantsOf(stx, oldParentUID)
		if err != nil {
			return err
		}
		for _, d := range descendants {
			if d == newParentUID {
				return model.ErrAccountCycle
			}
		}

		rows, err := stx.Query(
			`SELECT uid, name FROM accounts WHERE parent_uid = ?`, oldParentUID)
		if err != nil {
			return fmt.Errorf("listing children: %w", err)
		}
		type child struct{ uid, name string }
		var children []child
		for rows.Next() {
			var c child
			if err := rows.Scan(&c.uid, &c.name); err != nil {
				rows.Close()
				return fmt.Errorf("scanning child: %w", err)
			}
			children = append(children, c)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, c := range children {
			fullName := JoinFullName(newParent.FullName, c.name)
			if _, err := stx.Exec(
				`UPDATE accounts SET parent_uid = ?, full_name = ? WHERE uid = ?`,
				newParentUID, fullName, c.uid); err != nil {
				return fmt.Errorf("reparenting %s: %w", c.uid, err)
			}
			if err := cascadeFullNames(stx, c.uid, fullName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// RecursiveDelete deletes an account and its whole subtree: every
// transaction with at least one split in any deleted account goes too (a
// transaction's splits are never left dangling), and surviving accounts
// whose default-transfer pointer named a deleted account have it cleared.
// Deleting the root is refused outright. One atomic unit; callers wanting to
// keep the transactions must ReassignDescendants first.
func (s *Service) RecursiveDelete(uid string) error {
	target, err := s.Get(uid)
	if err != nil {
		return err
	}
	if target.IsRoot() {
		return model.ErrRootAccount
	}

	err = s.db.Transaction(func(stx *sql.Tx) error {
		descendants, err := descendantsOf(stx, uid)
		if err != nil {
			return err
		}
		doomed := append([]string{uid}, descendants...)
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(doomed)), ",")
		args := make([]any, len(doomed))
		for i, u := range doomed {
			args[i] = u
		}

		// Whole transactions, not just the splits in the doomed subtree.
		if _, err := stx.Exec(
			`DELETE FROM transactions WHERE uid IN (
			     SELECT DISTINCT transaction_uid FROM splits
			     WHERE account_uid IN (`+placeholders+`))`, args...); err != nil {
			return fmt.Errorf("deleting transactions: %w", err)
		}

		// Children before parents, so parent_uid references never dangle.
		for i := len(doomed) - 1; i >= 0; i-- {
			if _, err := stx.Exec(`DELETE FROM accounts WHERE uid = ?`, doomed[i]); err != nil {
				return fmt.Errorf("deleting account %s: %w", doomed[i], err)
			}
		}

		if _, err := stx.Exec(
			`UPDATE accounts SET default_transfer_account_uid = NULL
			 WHERE default_transfer_account_uid IN (`+placeholders+`)`, args...); err != nil {
			return fmt.Errorf("clearing transfer pointers: %w", err)
		}

		if _, err := stx.Exec(
			`UPDATE accounts SET balance_num = NULL, balance_denom = NULL
			 WHERE balance_num IS NOT NULL`); err != nil {
			return fmt.Errorf("clearing balance snapshots: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

func splitPath(path string) []string {
	var out []string
	for _, segment := range strings.Split(path, model.FullNameSeparator) {
		segment = strings.TrimSpace(segment)
		if segment != "" {
			out = append(out, segment)
		}
	}
	return out
}
