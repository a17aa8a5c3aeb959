package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/craig-ford/ralph-kiro/internal/breaker"
	"github.com/craig-ford/ralph-kiro/internal/status"
)

var breakerCmd = &cobra.Command{
	Use:   "breaker",
	Short: "Inspect and control the circuit breaker",
}

var breakerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the persisted breaker state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := status.NewStore(cfg.StateDir)

		snap, ok, err := store.ReadBreaker()
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("No breaker state recorded.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-14s %s\n", "State:", snap.State)
		fmt.Fprintf(w, "%-14s %d (threshold %d)\n", "No-progress:", snap.ConsecutiveNoProgress, cfg.Breaker.NoProgressThreshold)
		fmt.Fprintf(w, "%-14s %d (threshold %d)\n", "Errors:", snap.ConsecutiveErrors, cfg.Breaker.ErrorThreshold)
		fmt.Fprintf(w, "%-14s %s\n", "Last change:", snap.LastTransitionReason)
		if !snap.LastTransitionTime.IsZero() {
			fmt.Fprintf(w, "%-14s %s\n", "Changed at:", snap.LastTransitionTime.Format(time.RFC3339))
		}
		return nil
	},
}

var breakerResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Force the breaker closed and zero its counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, store, err := loadBreaker()
		if err != nil {
			return err
		}
		b.Reset()
		if err := store.WriteBreaker(b.Snapshot()); err != nil {
			return err
		}
		cmd.Println("breaker reset: closed")
		return nil
	},
}

var breakerHalfOpenCmd = &cobra.Command{
	Use:   "half-open",
	Short: "Let one probe iteration decide whether to close or re-open",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, store, err := loadBreaker()
		if err != nil {
			return err
		}
		b.HalfOpen()
		if err := store.WriteBreaker(b.Snapshot()); err != nil {
			return err
		}
		cmd.Println("breaker half-open: next iteration is a probe")
		return nil
	},
}

// loadBreaker reconstructs the breaker from its persisted snapshot so
// administrative transitions go through the same state machine the
// controller uses.
func loadBreaker() (*breaker.Breaker, *status.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store := status.NewStore(cfg.StateDir)

	b := breaker.New(cfg.Breaker.NoProgressThreshold, cfg.Breaker.ErrorThreshold)
	if snap, ok, err := store.ReadBreaker(); err != nil {
		return nil, nil, err
	} else if ok {
		b.Restore(snap)
	}
	return b, store, nil
}

func init() {
	breakerCmd.AddCommand(breakerShowCmd)
	breakerCmd.AddCommand(breakerResetCmd)
	breakerCmd.AddCommand(breakerHalfOpenCmd)
}
