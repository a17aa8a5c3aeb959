package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/craig-ford/ralph-kiro/internal/analytics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate statistics over recorded runs",
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

		totals, err := analytics.QueryTotals(hist)
		if err != nil {
			return err
		}
		outcomes, err := analytics.QueryOutcomes(hist, "")
		if err != nil {
			return err
		}
		signals, err := analytics.QuerySignalDistribution(hist, "")
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		summaries, err := analytics.QueryRunSummaries(hist, limit)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			out := struct {
				Totals   analytics.Totals         `json:"totals"`
				Outcomes []analytics.OutcomeCount `json:"outcomes"`
				Signals  []analytics.SignalDist   `json:"done_signal_distribution"`
				Runs     []analytics.RunSummary   `json:"runs"`
			}{totals, outcomes, signals, summaries}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal stats: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-14s %d\n", "Runs:", totals.Runs)
		fmt.Fprintf(w, "%-14s %d\n", "Iterations:", totals.Iterations)
		fmt.Fprintf(w, "%-14s %.1f%%\n", "Error rate:", totals.ErrorRate)
		fmt.Fprintf(w, "%-14s %.1f\n", "Avg files:", totals.AvgFiles)
		fmt.Fprintf(w, "%-14s %.1fs avg, %.1fs p50, %.1fs p95\n", "Duration:",
			totals.AvgDuration, totals.P50Duration, totals.P95Duration)

		if len(outcomes) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Outcomes:")
			for _, oc := range outcomes {
				fmt.Fprintf(w, "  %-10s %5d  %5.1f%%\n", oc.Outcome, oc.Count, oc.Pct)
			}
		}

		if len(signals) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Done signals per iteration:")
			for _, sd := range signals {
				fmt.Fprintf(w, "  %d votes    %5d  %5.1f%%\n", sd.Signals, sd.Count, sd.Pct)
			}
		}

		if len(summaries) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "%-10s %-6s %-16s %-8s %-9s %s\n", "RUN", "ITERS", "REASON", "ERR%", "FILES/IT", "AVG DUR")
			fmt.Fprintf(w, "%-10s %-6s %-16s %-8s %-9s %s\n",
				strings.Repeat("-", 10), strings.Repeat("-", 6), strings.Repeat("-", 16),
				strings.Repeat("-", 8), strings.Repeat("-", 9), strings.Repeat("-", 7))
			for _, rs := range summaries {
				fmt.Fprintf(w, "%-10s %-6d %-16s %-8.1f %-9.1f %.1fs\n",
					shortID(rs.RunID), rs.Iterations, rs.StopReason, rs.ErrorRate, rs.AvgFiles, rs.AvgDuration)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "output as JSON")
	statsCmd.Flags().Int("limit", 10, "maximum runs to summarize")
}
