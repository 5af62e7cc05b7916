package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountsCommand() *cobra.Command {
	var (
		dir        string
		showHidden bool
	)

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the chart of accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccounts(dir, showHidden)
		},
	}

	cmd.Flags().StringVar(&dir, "book", ".", "book directory")
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "include hidden accounts")

	return cmd
}

func runAccounts(dir string, showHidden bool) error {
	b, err := openBook(dir)
	if err != nil {
		return err
	}
	defer b.close()

	all, err := b.accounts.All(showHidden)
	if err != nil {
		return err
	}
	for _, a := range all {
		if a.IsRoot() {
			continue
		}
		marker := " "
		if a.Placeholder {
			marker = "*"
		}
		fmt.Printf("%s %-40s %s\n", marker, a.FullName, a.Type)
	}
	return nil
}
