// Package commands wires the engine into the pocketbooks CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/pocketbooks/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "pocketbooks",
		Short:   "Double-entry bookkeeping for personal finances",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAddCommand())
	rootCmd.AddCommand(newBalanceCommand())
	rootCmd.AddCommand(newAccountsCommand())

	return rootCmd
}
