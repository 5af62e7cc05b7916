package model

import "time"

// SplitType records which side of the double entry a split sits on.
type SplitType string

const (
	SplitDebit  SplitType = "DEBIT"
	SplitCredit SplitType = "CREDIT"
)

// Sign returns +1 for debits and -1 for credits.
func (t SplitType) Sign() int64 {
	if t == SplitCredit {
		return -1
	}
	return 1
}

// Invert returns the opposite side.
func (t SplitType) Invert() SplitType {
	if t == SplitDebit {
		return SplitCredit
	}
	return SplitDebit
}

// ReconcileState is passthrough data for collaborators that reconcile
// statements; no engine invariant depends on it.
type ReconcileState string

const (
	ReconcileNone    ReconcileState = "n"
	ReconcileCleared ReconcileState = "c"
	ReconcileYes     ReconcileState = "y"
)

// Split is one signed leg of a transaction, tied to exactly one account.
// Value is denominated in the transaction's commodity, Quantity in the
// account's commodity; the two are equal when those commodities match.
type Split struct {
	UID            string
	TransactionUID string
	AccountUID     string
	Memo           string
	Type           SplitType
	Value          Amount
	Quantity       Amount
	ReconcileState ReconcileState
	ReconcileDate  *time.Time
}

// SignedValue returns the value signed by split type (debit +, credit -).
func (s *Split) SignedValue() Amount {
	if s.Type == SplitCredit {
		return s.Value.Neg()
	}
	return s.Value
}

// SignedQuantity returns the quantity signed by split type.
func (s *Split) SignedQuantity() Amount {
	if s.Type == SplitCredit {
		return s.Quantity.Neg()
	}
	return s.Quantity
}

// Transaction is a balanced group of splits sharing a working commodity.
type Transaction struct {
	UID          string
	Description  string
	Notes        string
	Time         time.Time
	CommodityUID string
	Exported     bool
	Template     bool

	// ScheduledActionUID links back to a recurring schedule owned by a
	// collaborator; the engine treats it as opaque.
	ScheduledActionUID string

	ModifiedAt time.Time
	Splits     []*Split
}

// Imbalance returns the signed sum of split values in the transaction's
// commodity. Zero means the double entry balances.
func (t *Transaction) Imbalance() Amount {
	sum := AmountZero
	for _, s := range t.Splits {
		sum = sum.Add(s.SignedValue())
	}
	return sum
}
