package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newBalanceCommand() *cobra.Command {
	var (
		dir   string
		start string
		end   string
	)

	cmd := &cobra.Command{
		Use:   "balance [account]",
		Short: "Show account balances, including sub-accounts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account := ""
			if len(args) > 0 {
				account = args[0]
			}
			return runBalance(dir, account, start, end)
		},
	}

	cmd.Flags().StringVar(&dir, "book", ".", "book directory")
	cmd.Flags().StringVar(&start, "start", "", "range start YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "range end YYYY-MM-DD")

	return cmd
}

func runBalance(dir, account, start, end string) error {
	b, err := openBook(dir)
	if err != nil {
		return err
	}
	defer b.close()

	var startTime, endTime time.Time
	if start != "" {
		if startTime, err = time.Parse("2006-01-02", start); err != nil {
			return fmt.Errorf("parsing start date: %w", err)
		}
	}
	if end != "" {
		if endTime, err = time.Parse("2006-01-02", end); err != nil {
			return fmt.Errorf("parsing end date: %w", err)
		}
	}

	if account != "" {
		a, err := b.accounts.GetByFullName(account)
		if err != nil {
			return fmt.Errorf("account %q: %w", account, err)
		}
		balance, err := b.accounts.Balance(a.UID, startTime, endTime, true)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", a.FullName, balance)
		return nil
	}

	topLevel, err := b.accounts.TopLevel()
	if err != nil {
		return err
	}
	indent := b.cfg.Display.TreeIndent
	if indent <= 0 {
		indent = 2
	}
	for _, a := range topLevel {
		if a.Hidden && !b.cfg.Display.ShowHidden {
			continue
		}
		if err := printBalanceTree(b, a.UID, startTime, endTime, 0, indent); err != nil {
			return err
		}
	}
	return nil
}

func printBalanceTree(b *book, uid string, start, end time.Time, depth, indent int) error {
	a, err := b.accounts.Get(uid)
	if err != nil {
		return err
	}
	balance, err := b.accounts.Balance(uid, start, end, true)
	if err != nil {
		return err
	}
	fmt.Printf("%s%-30s %s\n", strings.Repeat(" ", depth*indent), a.Name, balance)

	children, err := b.accounts.ChildrenOf(uid)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.Hidden && !b.cfg.Display.ShowHidden {
			continue
		}
		if err := printBalanceTree(b, child.UID, start, end, depth+1, indent); err != nil {
			return err
		}
	}
	return nil
}
