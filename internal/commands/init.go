package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocketbooks/internal/config"
)

func newInitCommand() *cobra.Command {
	var name string
	var currency string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new pocketbooks book",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(absDir, name, currency)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "book name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&currency, "currency", "USD", "default currency code")

	return cmd
}

func runInit(dir, name, currency string) error {
	cfg := config.Default(name)
	cfg.Book.DefaultCurrency = currency
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	b, err := openBook(dir)
	if err != nil {
		return err
	}
	defer b.close()

	if err := b.commodities.SetDefaultCurrency(currency); err != nil {
		return fmt.Errorf("setting default currency: %w", err)
	}
	if _, err := b.accounts.CreateOrGetRoot(); err != nil {
		return fmt.Errorf("creating root account: %w", err)
	}
	if err := b.accounts.CreateDefaultChart(); err != nil {
		return fmt.Errorf("creating default chart: %w", err)
	}

	fmt.Printf("Initialized book %q at %s (%s)\n", name, dir, currency)
	return nil
}
