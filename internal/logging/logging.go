// Package logging configures zerolog for the ralph-kiro process.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls global logger behavior.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string

	// Format is "console" for human-readable output or "json" for
	// machine-readable lines.
	Format string

	// File, when set, appends every log line to this path in addition
	// to stderr.
	File string
}

var root zerolog.Logger = zerolog.New(consoleWriter(os.Stderr)).With().Timestamp().Logger()

// Init installs the global logger according to cfg. Safe to call more
// than once; the last call wins.
func Init(cfg Config) error {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var out io.Writer
	if strings.EqualFold(cfg.Format, "json") {
		out = os.Stderr
	} else {
		out = consoleWriter(os.Stderr)
	}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		out = zerolog.MultiLevelWriter(out, f)
	}

	root = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// Component returns a logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
