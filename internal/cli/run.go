package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/craig-ford/ralph-kiro/internal/agent"
	"github.com/craig-ford/ralph-kiro/internal/config"
	"github.com/craig-ford/ralph-kiro/internal/db"
	"github.com/craig-ford/ralph-kiro/internal/logging"
	"github.com/craig-ford/ralph-kiro/internal/loop"
	"github.com/craig-ford/ralph-kiro/internal/status"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent loop",
	Long: `Run invokes the configured agent repeatedly, analyzing each
iteration's output, until the exit policy stops the loop, the circuit
breaker opens, a stop file appears, or the process is interrupted.

The command exits 0 for every normal loop termination; a non-zero exit
means the loop could not start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if v, _ := cmd.Flags().GetString("prompt"); v != "" {
			cfg.Prompt.Path = v
		}
		if v, _ := cmd.Flags().GetString("tasks"); v != "" {
			cfg.Tasks.Path = v
		}
		if v, _ := cmd.Flags().GetString("agent"); v != "" {
			cfg.Agent.Command = v
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Agent.TimeoutMinutes, _ = cmd.Flags().GetInt("timeout")
		}

		if errs := config.Validate(cfg); len(errs) > 0 {
			cmd.Println("Validation errors:")
			for _, e := range errs {
				cmd.Printf("  - %s\n", e)
			}
			return fmt.Errorf("config has %d validation error(s)", len(errs))
		}

		logCfg := logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			File:   cfg.Logging.File,
		}
		if verbose {
			logCfg.Level = "debug"
		}
		if err := logging.Init(logCfg); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}

		if cfg.Agent.Command == "" {
			name, err := agent.Detect()
			if err != nil {
				return err
			}
			cfg.Agent.Command = name
			cmd.Printf("detected agent: %s\n", name)
		}

		if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
			return fmt.Errorf("create state dir %s: %w", cfg.StateDir, err)
		}
		store := status.NewStore(cfg.StateDir)

		var hist *db.DB
		if !cfg.History.Disabled {
			h, err := db.Open(cfg.HistoryPath())
			if err == nil {
				err = h.Migrate()
			}
			if err != nil {
				log := logging.Component("cli")
				log.Warn().Err(err).Msg("history database unavailable")
			} else {
				hist = h
				defer hist.Close()
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ctl := loop.New(*cfg, &agent.ExecRunner{}, store, hist)
		reason, err := ctl.Run(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("loop halted: %s\n", reason)
		return nil
	},
}

func init() {
	runCmd.Flags().String("prompt", "", "prompt file (overrides config)")
	runCmd.Flags().String("tasks", "", "task list file (overrides config)")
	runCmd.Flags().String("agent", "", "agent command (overrides config)")
	runCmd.Flags().Int("timeout", 0, "per-iteration timeout in minutes (overrides config)")
}
