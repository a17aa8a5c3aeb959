// Package agent invokes the external coding-agent process and reports
// how each invocation ended without interpreting its output.
package agent

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Outcome classifies how an invocation ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeFailed    Outcome = "failed"
)

// Request describes one agent invocation.
type Request struct {
	// Command is the shell command line to run.
	Command string

	// Dir is the working directory.
	Dir string

	// Prompt is piped to the agent's stdin in full.
	Prompt string

	// Timeout bounds wall-clock time. Zero means no bound.
	Timeout time.Duration

	// Env is the full subprocess environment; nil inherits the
	// parent's.
	Env []string
}

// Invocation is the captured result of one run. Output is always
// populated with whatever was captured, including on timeout.
type Invocation struct {
	Outcome  Outcome
	ExitCode int
	Output   string
	Duration time.Duration
}

// Runner abstracts agent execution for testability.
type Runner interface {
	Run(ctx context.Context, req Request) (Invocation, error)
}

// ExecRunner implements Runner by shelling out.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, req Request) (Invocation, error) {
	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, "sh", "-c", req.Command)
	cmd.Dir = req.Dir
	cmd.Stdin = strings.NewReader(req.Prompt)
	if req.Env != nil {
		cmd.Env = req.Env
	}

	// One writer for both streams keeps output interleaved the way a
	// terminal would show it.
	var combined strings.Builder
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	start := time.Now()
	err := cmd.Run()
	inv := Invocation{
		Outcome:  OutcomeCompleted,
		Output:   combined.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			inv.Outcome = OutcomeTimedOut
			inv.ExitCode = -1
			return inv, nil
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			inv.Outcome = OutcomeFailed
			inv.ExitCode = exitErr.ExitCode()
			return inv, nil
		}
		// The process never ran (command not found, bad working dir).
		inv.Outcome = OutcomeFailed
		inv.ExitCode = -1
		return inv, fmt.Errorf("exec agent: %w", err)
	}
	return inv, nil
}
