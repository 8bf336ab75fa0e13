package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/feerecon/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "feerecon",
		Short:   "Card commission reconciliation",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRatesCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
