package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/craig-ford/ralph-kiro/internal/db"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show per-iteration events for a run",
	Long: `Events prints every recorded iteration of a run: how the agent
invocation ended, what the analyzer saw, the breaker counters after the
update, and the exit-policy decision. Defaults to the latest run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		hist, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer hist.Close()

		runID, _ := cmd.Flags().GetString("run")
		run, err := resolveRun(hist, runID)
		if err != nil {
			return err
		}
		if run == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		its, err := hist.ListIterations(run.ID)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Run %s started %s\n\n", shortID(run.ID), run.StartedAt)
		if len(its) == 0 {
			fmt.Fprintln(w, "No iterations recorded.")
			return nil
		}

		fmt.Fprintf(w, "%-6s %-10s %-6s %-9s %-6s %-5s %-5s %-5s %-10s %s\n",
			"LOOP", "OUTCOME", "EXIT", "DURATION", "FILES", "ERR", "TEST", "DONE", "BREAKER", "DECISION")
		fmt.Fprintf(w, "%-6s %-10s %-6s %-9s %-6s %-5s %-5s %-5s %-10s %s\n",
			strings.Repeat("-", 6), strings.Repeat("-", 10), strings.Repeat("-", 6),
			strings.Repeat("-", 9), strings.Repeat("-", 6), strings.Repeat("-", 5),
			strings.Repeat("-", 5), strings.Repeat("-", 5), strings.Repeat("-", 10),
			strings.Repeat("-", 8))
		for _, it := range its {
			fmt.Fprintf(w, "%-6d %-10s %-6d %-9s %-6d %-5s %-5s %-5d %-10s %s\n",
				it.LoopCount, it.Outcome, it.ExitCode, formatMs(it.DurationMs),
				it.FilesChanged, yn(it.HasError), yn(it.TestOnly), it.DoneSignals,
				it.BreakerState, it.Decision)
		}
		return nil
	},
}

// resolveRun finds the run to report on: an explicit id (full or short
// prefix), or the latest when none is given.
func resolveRun(hist *db.DB, id string) (*db.Run, error) {
	if id == "" {
		return hist.LatestRun()
	}
	run, err := hist.GetRun(id)
	if err != nil || run != nil {
		return run, err
	}

	runs, err := hist.ListRuns(1000)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, id) {
			return &runs[i], nil
		}
	}
	return nil, fmt.Errorf("run %s not found", id)
}

func formatMs(ms int) string {
	return (time.Duration(ms) * time.Millisecond).Round(100 * time.Millisecond).String()
}

func yn(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func init() {
	eventsCmd.Flags().String("run", "", "run id (default: latest run)")
}
