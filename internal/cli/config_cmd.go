package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/craig-ford/ralph-kiro/internal/config"
	"github.com/craig-ford/ralph-kiro/internal/prompt"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate, inspect and scaffold loop configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the loop configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		errs := config.Validate(cfg)
		if len(errs) == 0 {
			cmd.Println("Configuration is valid.")
			return nil
		}

		cmd.Println("Validation errors:")
		for _, e := range errs {
			cmd.Printf("  - %s\n", e)
		}
		return fmt.Errorf("config has %d validation error(s)", len(errs))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration with defaults merged",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshalling config: %w", err)
		}

		cmd.Print(string(data))
		return nil
	},
}

// defaultConfigYAML is the commented scaffold written by config init.
// Commented-out values show the defaults without pinning them.
const defaultConfigYAML = `# ralph-kiro loop configuration.

# project_dir: .
# state_dir: .ralph

prompt:
  path: PROMPT.md
  # include_status prepends iteration number and task completion to the
  # prompt on every run.
  # include_status: false

tasks:
  path: TASKS.md

agent:
  # Shell command to invoke; the prompt is piped to its stdin. Leave
  # empty to auto-detect an installed agent CLI.
  command: ""
  # timeout_minutes: 15
  # env:
  #   EXAMPLE_API_KEY: value

# loop:
#   sleep_seconds: 5

# breaker:
#   no_progress_threshold: 3
#   error_threshold: 5

# policy:
#   max_test_loops: 3
#   max_done_signals: 2

# history:
#   disabled: false

# logging:
#   level: info
#   format: console
#   file: ""
`

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter ralph.yaml, PROMPT.md and TASKS.md",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if err := writeScaffold(cmd, "ralph.yaml", defaultConfigYAML, force); err != nil {
			return err
		}

		// Prompt and task files are never overwritten; they hold the
		// operator's own work.
		cfg := config.Default()
		if err := writeScaffold(cmd, cfg.Prompt.Path, prompt.DefaultPrompt, false); err != nil {
			return err
		}
		return writeScaffold(cmd, cfg.Tasks.Path, prompt.DefaultTasks, false)
	},
}

// writeScaffold creates path with content unless it already exists.
func writeScaffold(cmd *cobra.Command, path, content string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		cmd.Printf("kept     %s (already exists)\n", path)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	cmd.Printf("wrote    %s\n", path)
	return nil
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing ralph.yaml")
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
