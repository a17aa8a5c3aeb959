package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a configuration from the given YAML file path,
// then applies defaults for anything unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a config in standard locations and loads the
// first one found. Search order: ./ralph.yaml, ~/.ralph/config.yaml.
// When none exists the built-in defaults are returned; a config file is
// optional for this tool.
func LoadDefault() (*Config, error) {
	candidates := []string{"ralph.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".ralph", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return Default(), nil
}

// Default returns a config with every field at its default value.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults fills in zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}
	if cfg.StateDir == "" {
		cfg.StateDir = ".ralph"
	}
	if cfg.Prompt.Path == "" {
		cfg.Prompt.Path = "PROMPT.md"
	}
	if cfg.Tasks.Path == "" {
		cfg.Tasks.Path = "TASKS.md"
	}
	if cfg.Agent.TimeoutMinutes == 0 {
		cfg.Agent.TimeoutMinutes = DefaultTimeoutMinutes
	}
	if cfg.Loop.SleepSeconds == 0 {
		cfg.Loop.SleepSeconds = 5
	}
	if cfg.Breaker.NoProgressThreshold == 0 {
		cfg.Breaker.NoProgressThreshold = 3
	}
	if cfg.Breaker.ErrorThreshold == 0 {
		cfg.Breaker.ErrorThreshold = 5
	}
	if cfg.Policy.MaxTestLoops == 0 {
		cfg.Policy.MaxTestLoops = 3
	}
	if cfg.Policy.MaxDoneSignals == 0 {
		cfg.Policy.MaxDoneSignals = 2
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// HistoryPath returns the path of the iteration-history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.StateDir, "history.db")
}
