package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lingua",
	Short: "Spaced repetition scheduling for language learners",
	Long: "lingua decides when each learner should next review each item and " +
		"updates that decision after every answer.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite file or Postgres DSN (overrides LINGUA_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("catalog", "", "Path to the item catalog (overrides LINGUA_CATALOG env var)")
	rootCmd.PersistentFlags().String("log-mode", "", "Logger mode: dev, prod or nop (overrides LINGUA_LOG_MODE env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(suspendCmd)
	rootCmd.AddCommand(unsuspendCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDSN returns the database location using --db flag (highest
// priority), then the configured DSN, then the default XDG path for SQLite.
func resolveDSN(cmd *cobra.Command, dialect, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		configured = p
	}
	if dialect != store.DialectSQLite {
		return configured, nil
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
