package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/craig-ford/ralph-kiro/internal/breaker"
	"github.com/craig-ford/ralph-kiro/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current loop status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := status.NewStore(cfg.StateDir)

		asJSON, _ := cmd.Flags().GetBool("json")
		watch, _ := cmd.Flags().GetBool("watch")

		if err := renderStatus(cmd, store, asJSON); err != nil {
			return err
		}
		if !watch {
			return nil
		}
		return watchStatus(cmd, store, asJSON)
	},
}

type statusView struct {
	Loop    status.Snapshot  `json:"loop"`
	Breaker breaker.Snapshot `json:"breaker"`
}

func renderStatus(cmd *cobra.Command, store *status.Store, asJSON bool) error {
	snap, haveLoop, err := store.ReadStatus()
	if err != nil {
		return err
	}
	brk, haveBreaker, err := store.ReadBreaker()
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(statusView{Loop: snap, Breaker: brk}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	w := cmd.OutOrStdout()
	if !haveLoop {
		fmt.Fprintln(w, "No status recorded.")
	} else {
		fmt.Fprintf(w, "%-14s %s\n", "Status:", snap.Status)
		fmt.Fprintf(w, "%-14s %s\n", "Message:", snap.Message)
		fmt.Fprintf(w, "%-14s %d\n", "Loop:", snap.LoopCount)
		fmt.Fprintf(w, "%-14s %d consecutive\n", "Test-only:", snap.ConsecutiveTestOnlyLoops)
		fmt.Fprintf(w, "%-14s %d consecutive\n", "Done-signals:", snap.ConsecutiveDoneSignalLoops)
		fmt.Fprintf(w, "%-14s %s\n", "Updated:", snap.Timestamp.Format(time.RFC3339))
	}
	if haveBreaker {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-14s %s\n", "Breaker:", brk.State)
		fmt.Fprintf(w, "%-14s %d\n", "No-progress:", brk.ConsecutiveNoProgress)
		fmt.Fprintf(w, "%-14s %d\n", "Errors:", brk.ConsecutiveErrors)
		fmt.Fprintf(w, "%-14s %s\n", "Last change:", brk.LastTransitionReason)
	}
	return nil
}

// watchStatus re-renders whenever a snapshot file is replaced. Writes
// are atomic renames, so watching the directory catches them.
func watchStatus(cmd *cobra.Command, store *status.Store, asJSON bool) error {
	if err := os.MkdirAll(store.Dir(), 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", store.Dir(), err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(store.Dir()); err != nil {
		return fmt.Errorf("watch %s: %w", store.Dir(), err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redraw := make(chan struct{}, 1)
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if name != "status.json" && name != "breaker.json" {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				select {
				case redraw <- struct{}{}:
				default:
				}
			})
		case <-redraw:
			fmt.Fprintln(cmd.OutOrStdout(), "---")
			if err := renderStatus(cmd, store, asJSON); err != nil {
				return err
			}
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", werr)
		}
	}
}

func init() {
	statusCmd.Flags().Bool("json", false, "output as JSON")
	statusCmd.Flags().Bool("watch", false, "keep watching for snapshot changes")
}
