package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/craig-ford/ralph-kiro/internal/config"
	"github.com/craig-ford/ralph-kiro/internal/db"
)

var version = "dev"

// SetVersion stamps the version printed by the version command.
func SetVersion(v string) {
	version = v
}

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ralph-kiro",
	Short: "ralph-kiro — an unattended loop around a coding agent",
	Long: `ralph-kiro re-invokes a non-interactive coding agent against a prompt
until layered heuristics decide the work is done or stuck: a response
analyzer scores each iteration's output, a circuit breaker halts
no-progress and error streaks, and an exit policy recognizes completion.

Loop state lives in the project's .ralph/ directory (JSON snapshots for
status and breaker, SQLite for iteration history).`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.LoadDefault()
}

// openHistory opens an existing history database for the read-only
// reporting commands.
func openHistory(cfg *config.Config) (*db.DB, error) {
	path := cfg.HistoryPath()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no history database at %s", path)
	}
	h, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := h.Migrate(); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./ralph.yaml, then ~/.ralph/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(breakerCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
}
