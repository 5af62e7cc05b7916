// Package accounts implements the account hierarchy: the tree of accounts
// under a single synthetic root, fully-qualified name derivation, structural
// mutations, and balance aggregation over the split ledger.
package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/pocketbooks/internal/cache"
	"github.com/cleared-dev/pocketbooks/internal/commodities"
	"github.com/cleared-dev/pocketbooks/internal/db"
	"github.com/cleared-dev/pocketbooks/internal/id"
	"github.com/cleared-dev/pocketbooks/internal/ledger"
	"github.com/cleared-dev/pocketbooks/internal/model"
	"github.com/cleared-dev/pocketbooks/internal/prices"
)

// Service provides business logic for the account hierarchy.
type Service struct {
	db          *db.DB
	commodities *commodities.Service
	prices      *prices.Service
	ledger      *ledger.Service
	cache       *cache.Cache
}

// NewService creates an accounts Service.
func NewService(store *db.DB, reg *commodities.Service, pr *prices.Service, led *ledger.Service, c *cache.Cache) *Service {
	return &Service{db: store, commodities: reg, prices: pr, ledger: led, cache: c}
}

// queryer is satisfied by both *db.DB and *sql.Tx, so hierarchy walks work
// inside and outside a unit of work.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

const accountColumns = `uid, name, full_name, type, commodity_uid, parent_uid,
	placeholder, hidden, favorite, description, default_transfer_account_uid,
	balance_num, balance_denom`

// CreateOrGetRoot returns the existing root account, creating exactly one if
// the book has none. Idempotent.
func (s *Service) CreateOrGetRoot() (*model.Account, error) {
	def, err := s.commodities.Default()
	if err != nil {
		return nil, err
	}
	var uid string
	err = s.db.Transaction(func(stx *sql.Tx) error {
		uid, err = ledger.EnsureRoot(stx, def.UID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(uid)
}

// Save persists an account, creating it when it has no UID. An account
// without an explicit parent is attached to the root. The fully-qualified
// name is recomputed from the parent chain and, when it changed, cascaded to
// every descendant.
func (s *Service) Save(a *model.Account) error {
	if a == nil || strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account name: %w", model.ErrInvalidArgument)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("account type %q: %w", a.Type, model.ErrInvalidArgument)
	}
	if a.Type == model.AccountTypeRoot {
		return fmt.Errorf("saving root through Save: %w", model.ErrRootAccount)
	}
	if a.CommodityUID == "" {
		def, err := s.commodities.Default()
		if err != nil {
			return err
		}
		a.CommodityUID = def.UID
	}
	if _, err := s.commodities.Get(a.CommodityUID); err != nil {
		return fmt.Errorf("account commodity: %w", err)
	}

	isNew := a.UID == ""
	if isNew {
		a.UID = id.New()
	}

	err := s.db.Transaction(func(stx *sql.Tx) error {
		if a.ParentUID == "" {
			rootUID, err := ledger.EnsureRoot(stx, a.CommodityUID)
			if err != nil {
				return err
			}
			a.ParentUID = rootUID
		}
		parent, err := getAccountTx(stx, a.ParentUID)
		if err != nil {
			return fmt.Errorf("parent account: %w", err)
		}

		// Cycle prevention: the new parent may not sit inside the
		// account's own subtree.
		if !isNew {
			if a.ParentUID == a.UID {
				return model.ErrAccountCycle
			}
			descendants, err := descendantsOf(stx, a.UID)
			if err != nil {
				return err
			}
			for _, d := range descendants {
				if d == a.ParentUID {
					return model.ErrAccountCycle
				}
			}
		}

		a.FullName = JoinFullName(parent.FullName, a.Name)
		if err := upsertAccount(stx, a); err != nil {
			return err
		}
		return cascadeFullNames(stx, a.UID, a.FullName)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// Get returns an account by UID.
func (s *Service) Get(uid string) (*model.Account, error) {
	if uid == "" {
		return nil, fmt.Errorf("account UID: %w", model.ErrInvalidArgument)
	}
	if v, ok := s.cache.GetAccount(uid); ok {
		return v.(*model.Account), nil
	}
	a, err := s.scanOne(`SELECT `+accountColumns+` FROM accounts WHERE uid = ?`, uid)
	if err != nil {
		return nil, err
	}
	s.cache.SetAccount(uid, a)
	return a, nil
}

// GetByFullName returns an account by its fully-qualified name.
func (s *Service) GetByFullName(fullName string) (*model.Account, error) {
	return s.scanOne(`SELECT `+accountColumns+` FROM accounts WHERE full_name = ?`, fullName)
}

// All returns every account ordered by full name; the root sorts first.
// Hidden accounts are filtered out unless includeHidden is set.
func (s *Service) All(includeHidden bool) ([]*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if !includeHidden {
		query += ` WHERE hidden = 0`
	}
	query += ` ORDER BY full_name`
	return s.scanMany(query)
}

// ChildrenOf returns the direct children of an account, by name.
func (s *Service) ChildrenOf(parentUID string) ([]*model.Account, error) {
	return s.scanMany(
		`SELECT `+accountColumns+` FROM accounts WHERE parent_uid = ? ORDER BY name`, parentUID)
}

// TopLevel returns the direct children of the root account.
func (s *Service) TopLevel() ([]*model.Account, error) {
	return s.scanMany(
		`SELECT `+accountColumns+` FROM accounts
		 WHERE parent_uid IN (SELECT uid FROM accounts WHERE type = ?)
		 ORDER BY name`, model.AccountTypeRoot)
}

// Favorites returns accounts flagged as favorite.
func (s *Service) Favorites() ([]*model.Account, error) {
	return s.scanMany(
		`SELECT `+accountColumns+` FROM accounts WHERE favorite = 1 ORDER BY full_name`)
}

// ListRecent returns up to n accounts ordered by most recent split activity.
func (s *Service) ListRecent(n int) ([]*model.Account, error) {
	if n <= 0 {
		n = 10
	}
	return s.scanMany(
		`SELECT `+accountColumns+` FROM accounts WHERE uid IN (
		     SELECT splits.account_uid FROM splits
		     JOIN transactions ON transactions.uid = splits.transaction_uid
		     GROUP BY splits.account_uid
		     ORDER BY MAX(transactions.timestamp) DESC
		     LIMIT ?)`, n)
}

// DescendantsOf returns the UIDs of every descendant of an account, walked
// breadth-first level by level. The account itself is not included.
func (s *Service) DescendantsOf(uid string) ([]string, error) {
	if uid == "" {
		return nil, fmt.Errorf("account UID: %w", model.ErrInvalidArgument)
	}
	return descendantsOf(s.db, uid)
}

// ResolveFullName recomputes an account's fully-qualified name by walking
// parent links to the root. The root contributes nothing to the joined
// string.
func (s *Service) ResolveFullName(a *model.Account) (string, error) {
	if a.IsRoot() {
		return "", nil
	}
	segments := []string{a.Name}
	parentUID := a.ParentUID
	for parentUID != "" {
		parent, err := s.Get(parentUID)
		if err != nil {
			return "", fmt.Errorf("walking parent chain of %s: %w", a.UID, err)
		}
		if parent.IsRoot() {
			break
		}
		segments = append([]string{parent.Name}, segments...)
		parentUID = parent.ParentUID
	}
	return strings.Join(segments, model.FullNameSeparator), nil
}

// JoinFullName appends a segment to a parent's full name. The root's empty
// full name contributes nothing.
func JoinFullName(parentFullName, name string) string {
	if parentFullName == "" {
		return name
	}
	return parentFullName + model.FullNameSeparator + name
}

// descendantsOf is the BFS walk shared by reads and structural mutations:
// iterative level-by-level expansion over parent_uid edges, parents always
// appearing before their children in the result.
func descendantsOf(q queryer, uid string) ([]string, error) {
	var out []string
	frontier := []string{uid}
	for len(frontier) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(frontier)), ",")
		args := make([]any, len(frontier))
		for i, u := range frontier {
			args[i] = u
		}
		rows, err := q.Query(
			`SELECT uid FROM accounts WHERE parent_uid IN (`+placeholders+`) ORDER BY uid`, args...)
		if err != nil {
			return nil, fmt.Errorf("walking descendants: %w", err)
		}
		var next []string
		for rows.Next() {
			var child string
			if err := rows.Scan(&child); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning descendant: %w", err)
			}
			next = append(next, child)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		out = append(out, next...)
		frontier = next
	}
	return out, nil
}

// cascadeFullNames rewrites the full names of every descendant after an
// account was renamed or reparented, parents before children.
func cascadeFullNames(stx *sql.Tx, uid, fullName string) error {
	type node struct {
		uid      string
		fullName string
	}
	frontier := []node{{uid: uid, fullName: fullName}}
	for len(frontier) > 0 {
		var next []node
		for _, n := range frontier {
			rows, err := stx.Query(`SELECT uid, name FROM accounts WHERE parent_uid = ?`, n.uid)
			if err != nil {
				return fmt.Errorf("listing children of %s: %w", n.uid, err)
			}
			for rows.Next() {
				var childUID, childName string
				if err := rows.Scan(&childUID, &childName); err != nil {
					rows.Close()
					return fmt.Errorf("scanning child: %w", err)
				}
				next = append(next, node{uid: childUID, fullName: JoinFullName(n.fullName, childName)})
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}
		}
		for _, n := range next {
			if _, err := stx.Exec(
				`UPDATE accounts SET full_name = ? WHERE uid = ?`, n.fullName, n.uid); err != nil {
				return fmt.Errorf("updating full name of %s: %w", n.uid, err)
			}
		}
		frontier = next
	}
	return nil
}

func upsertAccount(stx *sql.Tx, a *model.Account) error {
	var parentUID any
	if a.ParentUID != "" {
		parentUID = a.ParentUID
	}
	var transferUID any
	if a.DefaultTransferAccountUID != "" {
		transferUID = a.DefaultTransferAccountUID
	}
	var balNum, balDenom any
	if a.CachedBalance != nil {
		balNum, balDenom = a.CachedBalance.Num, a.CachedBalance.Denom
	}
	_, err := stx.Exec(
		`INSERT INTO accounts
		 (uid, name, full_name, type, commodity_uid, parent_uid, placeholder, hidden,
		  favorite, description, default_transfer_account_uid, balance_num, balance_denom)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
		     name = excluded.name,
		     full_name = excluded.full_name,
		     type = excluded.type,
		     commodity_uid = excluded.commodity_uid,
		     parent_uid = excluded.parent_uid,
		     placeholder = excluded.placeholder,
		     hidden = excluded.hidden,
		     favorite = excluded.favorite,
		     description = excluded.description,
		     default_transfer_account_uid = excluded.default_transfer_account_uid,
		     balance_num = excluded.balance_num,
		     balance_denom = excluded.balance_denom`,
		a.UID, a.Name, a.FullName, a.Type, a.CommodityUID, parentUID,
		a.Placeholder, a.Hidden, a.Favorite, a.Description, transferUID, balNum, balDenom)
	if err != nil {
		return fmt.Errorf("saving account %s: %w", a.FullName, err)
	}
	return nil
}

func getAccountTx(stx *sql.Tx, uid string) (*model.Account, error) {
	row := stx.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE uid = ?`, uid)
	return scanAccount(row.Scan)
}

func (s *Service) scanOne(query string, args ...any) (*model.Account, error) {
	row := s.db.QueryRow(query, args...)
	return scanAccount(row.Scan)
}

func (s *Service) scanMany(query string, args ...any) ([]*model.Account, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAccount(scan func(...any) error) (*model.Account, error) {
	a := new(model.Account)
	var parentUID, transferUID sql.NullString
	var balNum, balDenom sql.NullInt64
	err := scan(&a.UID, &a.Name, &a.FullName, &a.Type, &a.CommodityUID, &parentUID,
		&a.Placeholder, &a.Hidden, &a.Favorite, &a.Description, &transferUID,
		&balNum, &balDenom)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning account: %w", err)
	}
	a.ParentUID = parentUID.String
	a.DefaultTransferAccountUID = transferUID.String
	if balNum.Valid && balDenom.Valid && balDenom.Int64 > 0 {
		bal := model.Amount{Num: balNum.Int64, Denom: balDenom.Int64}
		a.CachedBalance = &bal
	}
	return a, nil
}
