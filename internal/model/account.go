package model

import "strings"

// AccountType classifies accounts in the chart of accounts. Each type carries
// a fixed flag for whether a debit increases its balance; the flag lives in a
// lookup table rather than on subtypes.
type AccountType string

const (
	AccountTypeAsset      AccountType = "ASSET"
	AccountTypeBank       AccountType = "BANK"
	AccountTypeCash       AccountType = "CASH"
	AccountTypeCredit     AccountType = "CREDIT"
	AccountTypeLiability  AccountType = "LIABILITY"
	AccountTypeIncome     AccountType = "INCOME"
	AccountTypeExpense    AccountType = "EXPENSE"
	AccountTypeEquity     AccountType = "EQUITY"
	AccountTypeStock      AccountType = "STOCK"
	AccountTypeMutual     AccountType = "MUTUAL"
	AccountTypeCurrency   AccountType = "CURRENCY"
	AccountTypeTrading    AccountType = "TRADING"
	AccountTypePayable    AccountType = "PAYABLE"
	AccountTypeReceivable AccountType = "RECEIVABLE"
	AccountTypeRoot       AccountType = "ROOT"
)

// debitNormal records, per type, whether the debit side is the normal
// (increasing) balance.
var debitNormal = map[AccountType]bool{
	AccountTypeAsset:      true,
	AccountTypeBank:       true,
	AccountTypeCash:       true,
	AccountTypeCredit:     false,
	AccountTypeLiability:  false,
	AccountTypeIncome:     false,
	AccountTypeExpense:    true,
	AccountTypeEquity:     false,
	AccountTypeStock:      true,
	AccountTypeMutual:     true,
	AccountTypeCurrency:   true,
	AccountTypeTrading:    false,
	AccountTypePayable:    false,
	AccountTypeReceivable: true,
	AccountTypeRoot:       true,
}

// DebitNormal reports whether debits increase this account type's balance.
func (t AccountType) DebitNormal() bool { return debitNormal[t] }

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	_, ok := debitNormal[t]
	return ok
}

// FullNameSeparator joins account names into fully-qualified names.
const FullNameSeparator = ":"

// Account is a node in the hierarchical chart of accounts. Parent linkage is
// by UID, never by live pointer, so the tree can be stored and walked without
// reference cycles.
type Account struct {
	UID          string
	Name         string
	FullName     string // colon-joined ancestor chain, maintained on save/reparent
	Type         AccountType
	CommodityUID string
	ParentUID    string // empty only for the root account
	Placeholder  bool   // cannot hold its own splits, only aggregates children
	Hidden       bool
	Favorite     bool
	Description  string

	// DefaultTransferAccountUID is a UI hint naming the usual counterparty
	// account; cleared when that account is deleted.
	DefaultTransferAccountUID string

	// CachedBalance is the persisted all-time balance snapshot, nil when
	// stale or never computed.
	CachedBalance *Amount
}

// IsRoot reports whether the account is the synthetic root.
func (a *Account) IsRoot() bool { return a.Type == AccountTypeRoot }

// BaseName returns the last segment of a fully-qualified name.
func BaseName(fullName string) string {
	if i := strings.LastIndex(fullName, FullNameSeparator); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}
