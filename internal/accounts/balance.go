package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/pocketbooks/internal/model"
)

// allTime reports whether a time range denotes "all time".
func allTime(start, end time.Time) bool {
	return start.IsZero() && end.IsZero()
}

// Balance returns an account's balance in its own commodity, summing split
// quantities signed by debit/credit and flipped for credit-normal account
// types so every type displays growth as positive. With includeSubaccounts,
// each child subtree's balance is converted into this account's commodity
// via the price table and added; a child with no conversion rate is skipped,
// deliberately under-counting rather than failing (no triangulation through
// an intermediate commodity is attempted).
func (s *Service) Balance(uid string, start, end time.Time, includeSubaccounts bool) (model.Money, error) {
	a, err := s.Get(uid)
	if err != nil {
		return model.Money{}, err
	}
	commodity, err := s.commodities.Get(a.CommodityUID)
	if err != nil {
		return model.Money{}, fmt.Errorf("account %s commodity: %w", uid, err)
	}

	var total model.Amount
	if allTime(start, end) {
		total, err = s.ownBalance(a)
	} else {
		total, err = s.rangedBalance(a, start, end)
	}
	if err != nil {
		return model.Money{}, err
	}

	if includeSubaccounts {
		children, err := s.ChildrenOf(uid)
		if err != nil {
			return model.Money{}, err
		}
		for _, child := range children {
			childBalance, err := s.Balance(child.UID, start, end, true)
			if err != nil {
				return model.Money{}, err
			}
			if childBalance.IsZero() {
				continue
			}
			if child.CommodityUID == a.CommodityUID {
				total = total.Add(childBalance.Amount)
				continue
			}
			rate, ok, err := s.prices.Rate(child.CommodityUID, a.CommodityUID)
			if err != nil {
				return model.Money{}, err
			}
			if !ok {
				// No direct or reciprocal rate: this subtree's
				// contribution is omitted from the sum.
				continue
			}
			total = total.Add(childBalance.Amount.Mul(rate))
		}
	}

	return model.NewMoney(total, commodity), nil
}

// ownBalance is the all-time balance of the account's own splits, served
// read-through: memory cache, then the persisted snapshot, then a fresh
// computation persisted back as the new snapshot.
func (s *Service) ownBalance(a *model.Account) (model.Amount, error) {
	if v, ok := s.cache.GetBalance(a.UID); ok {
		return v.(model.Amount), nil
	}
	if a.CachedBalance != nil {
		s.cache.SetBalance(a.UID, *a.CachedBalance)
		return *a.CachedBalance, nil
	}

	sum, err := s.rangedBalance(a, time.Time{}, time.Time{})
	if err != nil {
		return model.Amount{}, err
	}

	if _, err := s.db.Exec(
		`UPDATE accounts SET balance_num = ?, balance_denom = ? WHERE uid = ?`,
		sum.Num, sum.Denom, a.UID); err != nil {
		return model.Amount{}, fmt.Errorf("persisting balance snapshot: %w", err)
	}
	s.cache.SetBalance(a.UID, sum)
	return sum, nil
}

// rangedBalance sums the account's own split quantities in range, signed by
// split type and adjusted for the account type's normal balance side.
func (s *Service) rangedBalance(a *model.Account, start, end time.Time) (model.Amount, error) {
	splits, err := s.ledger.SplitsForAccount(a.UID, start, end)
	if err != nil {
		return model.Amount{}, err
	}
	sum := model.AmountZero
	for _, sp := range splits {
		sum = sum.Add(sp.SignedQuantity())
	}
	if !a.Type.DebitNormal() {
		sum = sum.Neg()
	}
	return sum, nil
}

// BalancesOf computes sign-adjusted balances for a set of accounts in one
// pass, grouping split sums by (account, split type, denominator) to bound
// query cost. Each result is in its account's own commodity; currency
// conversion stays at the caller's level.
func (s *Service) BalancesOf(uids []string, start, end time.Time) (map[string]model.Money, error) {
	out := make(map[string]model.Money, len(uids))
	if len(uids) == 0 {
		return out, nil
	}

	byUID := make(map[string]*model.Account, len(uids))
	for _, uid := range uids {
		a, err := s.Get(uid)
		if err != nil {
			return nil, err
		}
		commodity, err := s.commodities.Get(a.CommodityUID)
		if err != nil {
			return nil, err
		}
		byUID[uid] = a
		out[uid] = model.ZeroMoney(commodity)
	}

	query := `SELECT splits.account_uid, splits.type, splits.quantity_denom,
	                 SUM(splits.quantity_num)
	          FROM splits
	          JOIN transactions ON transactions.uid = splits.transaction_uid
	          WHERE transactions.template = 0
	            AND splits.account_uid IN (` +
		strings.TrimSuffix(strings.Repeat("?,", len(uids)), ",") + `)`
	args := make([]any, 0, len(uids)+2)
	for _, uid := range uids {
		args = append(args, uid)
	}
	if !start.IsZero() {
		query += ` AND transactions.timestamp >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		query += ` AND transactions.timestamp <= ?`
		args = append(args, end)
	}
	query += ` GROUP BY splits.account_uid, splits.type, splits.quantity_denom`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("batch balance query: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]model.Amount, len(uids))
	for rows.Next() {
		var accountUID string
		var splitType model.SplitType
		var denom, num int64
		if err := rows.Scan(&accountUID, &splitType, &denom, &num); err != nil {
			return nil, fmt.Errorf("scanning balance group: %w", err)
		}
		group, err := model.NewAmount(splitType.Sign()*num, denom)
		if err != nil {
			return nil, err
		}
		sums[accountUID] = sums[accountUID].Add(group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for uid, sum := range sums {
		a := byUID[uid]
		if !a.Type.DebitNormal() {
			sum = sum.Neg()
		}
		m := out[uid]
		m.Amount = sum
		out[uid] = m
	}
	return out, nil
}

// TypeBalance sums the balances of every account of a type, converted into
// the default currency. Accounts whose commodity has no conversion rate are
// omitted from the sum.
func (s *Service) TypeBalance(accountType model.AccountType, start, end time.Time) (model.Money, error) {
	target, err := s.commodities.Default()
	if err != nil {
		return model.Money{}, err
	}
	matches, err := s.scanMany(
		`SELECT `+accountColumns+` FROM accounts WHERE type = ?`, accountType)
	if err != nil {
		return model.Money{}, err
	}

	uids := make([]string, len(matches))
	for i, a := range matches {
		uids[i] = a.UID
	}
	balances, err := s.BalancesOf(uids, start, end)
	if err != nil {
		return model.Money{}, err
	}

	total := model.ZeroMoney(target)
	for _, a := range matches {
		m := balances[a.UID]
		if m.IsZero() {
			continue
		}
		if a.CommodityUID == target.UID {
			total.Amount = total.Amount.Add(m.Amount)
			continue
		}
		rate, ok, err := s.prices.Rate(a.CommodityUID, target.UID)
		if err != nil {
			return model.Money{}, err
		}
		if !ok {
			continue
		}
		total.Amount = total.Amount.Add(m.Amount.Mul(rate))
	}
	return total, nil
}
