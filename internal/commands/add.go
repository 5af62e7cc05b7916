package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocketbooks/internal/id"
	"github.com/cleared-dev/pocketbooks/internal/ledger"
	"github.com/cleared-dev/pocketbooks/internal/model"
)

func newAddCommand() *cobra.Command {
	var (
		dir         string
		date        string
		description string
		from        string
		to          string
		amount      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a balanced double entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(dir, date, description, from, to, amount)
		},
	}

	cmd.Flags().StringVar(&dir, "book", ".", "book directory")
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&description, "description", "", "transaction description (required)")
	_ = cmd.MarkFlagRequired("description")
	cmd.Flags().StringVar(&from, "from", "", "credited account full name (required)")
	_ = cmd.MarkFlagRequired("from")
	cmd.Flags().StringVar(&to, "to", "", "debited account full name (required)")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 12.50 (required)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runAdd(dir, date, description, from, to, amount string) error {
	b, err := openBook(dir)
	if err != nil {
		return err
	}
	defer b.close()

	when := time.Now()
	if date != "" {
		when, err = time.Parse("2006-01-02", date)
		if err != nil {
			return fmt.Errorf("parsing date: %w", err)
		}
	}

	value, err := model.ParseAmount(amount)
	if err != nil {
		return err
	}
	if value.Sign() <= 0 {
		return fmt.Errorf("amount must be positive: %w", model.ErrInvalidArgument)
	}

	creditAccount, err := b.accounts.GetByFullName(from)
	if err != nil {
		return fmt.Errorf("account %q: %w", from, err)
	}
	debitAccount, err := b.accounts.GetByFullName(to)
	if err != nil {
		return fmt.Errorf("account %q: %w", to, err)
	}

	commodity, err := b.commodities.Default()
	if err != nil {
		return err
	}

	tx := &model.Transaction{
		UID:          id.New(),
		Description:  description,
		Time:         when,
		CommodityUID: commodity.UID,
		Splits: []*model.Split{
			{
				UID:        id.New(),
				AccountUID: debitAccount.UID,
				Type:       model.SplitDebit,
				Value:      value,
				Quantity:   value,
			},
			{
				UID:        id.New(),
				AccountUID: creditAccount.UID,
				Type:       model.SplitCredit,
				Value:      value,
				Quantity:   value,
			},
		},
	}
	if err := b.ledger.SaveTransaction(tx, ledger.ModeInsert); err != nil {
		return err
	}

	fmt.Printf("Recorded %s: %s %s -> %s\n",
		tx.UID[:8], model.NewMoney(value, commodity), from, to)
	return nil
}
