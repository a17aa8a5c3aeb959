package config

import "fmt"

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// recognizedLevels is the set of valid logging levels.
var recognizedLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// recognizedFormats is the set of valid logging formats.
var recognizedFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.Prompt.Path == "" {
		errs = append(errs, ValidationError{Field: "prompt.path", Message: "is required"})
	}
	if cfg.Tasks.Path == "" {
		errs = append(errs, ValidationError{Field: "tasks.path", Message: "is required"})
	}
	if cfg.StateDir == "" {
		errs = append(errs, ValidationError{Field: "state_dir", Message: "is required"})
	}

	if t := cfg.Agent.TimeoutMinutes; t < MinTimeoutMinutes || t > MaxTimeoutMinutes {
		errs = append(errs, ValidationError{
			Field:   "agent.timeout_minutes",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinTimeoutMinutes, MaxTimeoutMinutes, t),
		})
	}

	if s := cfg.Loop.SleepSeconds; s < 0 || s > 3600 {
		errs = append(errs, ValidationError{
			Field:   "loop.sleep_seconds",
			Message: fmt.Sprintf("must be between 0 and 3600, got %d", s),
		})
	}

	if cfg.Breaker.NoProgressThreshold < 1 {
		errs = append(errs, ValidationError{
			Field:   "breaker.no_progress_threshold",
			Message: "must be at least 1",
		})
	}
	if cfg.Breaker.ErrorThreshold < 1 {
		errs = append(errs, ValidationError{
			Field:   "breaker.error_threshold",
			Message: "must be at least 1",
		})
	}

	if cfg.Policy.MaxTestLoops < 1 {
		errs = append(errs, ValidationError{
			Field:   "policy.max_test_loops",
			Message: "must be at least 1",
		})
	}
	if cfg.Policy.MaxDoneSignals < 1 {
		errs = append(errs, ValidationError{
			Field:   "policy.max_done_signals",
			Message: "must be at least 1",
		})
	}

	if l := cfg.Logging.Level; l != "" && !recognizedLevels[l] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unrecognized level %q", l),
		})
	}
	if f := cfg.Logging.Format; f != "" && !recognizedFormats[f] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unrecognized format %q", f),
		})
	}

	return errs
}
