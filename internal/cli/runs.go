package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded loop runs",
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

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := hist.ListRuns(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-10s %-22s %-12s %-16s %s\n", "ID", "STARTED", "STATUS", "REASON", "PROMPT")
		fmt.Fprintf(w, "%-10s %-22s %-12s %-16s %s\n",
			strings.Repeat("-", 10),
			strings.Repeat("-", 22),
			strings.Repeat("-", 12),
			strings.Repeat("-", 16),
			strings.Repeat("-", 6))
		for _, r := range runs {
			status := r.FinalStatus
			if status == "" {
				status = "running"
			}
			fmt.Fprintf(w, "%-10s %-22s %-12s %-16s %s\n",
				shortID(r.ID), r.StartedAt, status, r.StopReason, r.PromptPath)
		}
		return nil
	},
}

// shortID trims a UUID to its first segment for table output.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum runs to list")
}
