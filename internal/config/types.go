package config

// Config is the top-level configuration structure parsed from ralph YAML.
type Config struct {
	ProjectDir string  `yaml:"project_dir"`
	StateDir   string  `yaml:"state_dir"`
	Prompt     Prompt  `yaml:"prompt"`
	Tasks      Tasks   `yaml:"tasks"`
	Agent      Agent   `yaml:"agent"`
	Loop       Loop    `yaml:"loop"`
	Breaker    Breaker `yaml:"breaker"`
	Policy     Policy  `yaml:"policy"`
	History    History `yaml:"history"`
	Logging    Logging `yaml:"logging"`
}

// Prompt configures the prompt file handed to the agent each iteration.
type Prompt struct {
	Path string `yaml:"path"`

	// IncludeStatus prepends a short status header (iteration number,
	// task completion) to the prompt content.
	IncludeStatus bool `yaml:"include_status"`
}

// Tasks configures the external checklist file used for completion detection.
type Tasks struct {
	Path string `yaml:"path"`
}

// Agent configures the external coding-agent invocation.
type Agent struct {
	// Command is the shell command to invoke. Empty means auto-detect
	// an installed agent CLI.
	Command string `yaml:"command"`

	// TimeoutMinutes bounds one invocation's wall-clock time, 1-120.
	TimeoutMinutes int `yaml:"timeout_minutes"`

	// Env entries are merged over the parent environment for the
	// agent subprocess.
	Env map[string]string `yaml:"env"`
}

// Loop configures iteration pacing.
type Loop struct {
	SleepSeconds int `yaml:"sleep_seconds"`
}

// Breaker configures the stagnation/failure circuit breaker.
type Breaker struct {
	NoProgressThreshold int `yaml:"no_progress_threshold"`
	ErrorThreshold      int `yaml:"error_threshold"`
}

// Policy configures the exit policy's debounce limits.
type Policy struct {
	MaxTestLoops   int `yaml:"max_test_loops"`
	MaxDoneSignals int `yaml:"max_done_signals"`
}

// History configures the iteration-history database.
type History struct {
	// Disabled turns off history recording; the database lives at
	// <state_dir>/history.db when enabled.
	Disabled bool `yaml:"disabled"`
}

// Logging configures process logging.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Timeout bounds for one agent invocation, in minutes.
const (
	MinTimeoutMinutes     = 1
	MaxTimeoutMinutes     = 120
	DefaultTimeoutMinutes = 15
)
