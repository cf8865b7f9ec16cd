package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tally-dev/tally/internal/buildinfo"
	"github.com/tally-dev/tally/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{openStore: openStore, now: time.Now})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Personal finance ledger with recurring transaction projection",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.FileName, "path to tally.yaml")

	rootCmd.AddCommand(
		newInitCommand(),
		newServeCommand(a),
		newMigrateCommand(a),
		newProcessCommand(a),
		newBackupCommand(a),
		newRestoreCommand(a),
		newCleanupCommand(a),
		newExportCommand(a),
		newImportCommand(a),
	)

	return rootCmd
}
