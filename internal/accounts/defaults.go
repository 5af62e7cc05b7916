package accounts

import "github.com/cleared-dev/pocketbooks/internal/model"

// ChartEntry is one account in the starter chart, addressed by path.
type ChartEntry struct {
	Path        string
	Type        model.AccountType
	Placeholder bool
	Description string
}

// DefaultChart returns the starter chart of accounts for a new book.
func DefaultChart() []ChartEntry {
	return []ChartEntry{
		{Path: "Assets", Type: model.AccountTypeAsset, Placeholder: true, Description: "Things you own"},
		{Path: "Assets:Checking", Type: model.AccountTypeBank, Description: "Primary checking account"},
		{Path: "Assets:Savings", Type: model.AccountTypeBank, Description: "Savings account"},
		{Path: "Assets:Cash", Type: model.AccountTypeCash, Description: "Cash in wallet"},
		{Path: "Liabilities", Type: model.AccountTypeLiability, Placeholder: true, Description: "Things you owe"},
		{Path: "Liabilities:Credit Card", Type: model.AccountTypeCredit, Description: "Credit card"},
		{Path: "Income", Type: model.AccountTypeIncome, Placeholder: true},
		{Path: "Income:Salary", Type: model.AccountTypeIncome},
		{Path: "Income:Interest", Type: model.AccountTypeIncome},
		{Path: "Expenses", Type: model.AccountTypeExpense, Placeholder: true},
		{Path: "Expenses:Groceries", Type: model.AccountTypeExpense},
		{Path: "Expenses:Dining", Type: model.AccountTypeExpense},
		{Path: "Expenses:Rent", Type: model.AccountTypeExpense},
		{Path: "Expenses:Utilities", Type: model.AccountTypeExpense},
		{Path: "Expenses:Transport", Type: model.AccountTypeExpense},
		{Path: "Equity", Type: model.AccountTypeEquity, Placeholder: true},
	}
}

// CreateDefaultChart creates the starter chart, reusing any account that
// already exists. Safe to run on a non-empty book.
func (s *Service) CreateDefaultChart() error {
	for _, entry := range DefaultChart() {
		uid, err := s.CreateHierarchy(entry.Path, entry.Type)
		if err != nil {
			return err
		}
		if !entry.Placeholder && entry.Description == "" {
			continue
		}
		a, err := s.Get(uid)
		if err != nil {
			return err
		}
		a.Placeholder = entry.Placeholder
		if entry.Description != "" {
			a.Description = entry.Description
		}
		if err := s.Save(a); err != nil {
			return err
		}
	}
	return nil
}
