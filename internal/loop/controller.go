// Package loop drives the agent invocation cycle: run, analyze,
// update the breaker, consult the exit policy, persist, sleep.
package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/craig-ford/ralph-kiro/internal/agent"
	"github.com/craig-ford/ralph-kiro/internal/analyzer"
	"github.com/craig-ford/ralph-kiro/internal/breaker"
	"github.com/craig-ford/ralph-kiro/internal/config"
	"github.com/craig-ford/ralph-kiro/internal/db"
	"github.com/craig-ford/ralph-kiro/internal/logging"
	"github.com/craig-ford/ralph-kiro/internal/policy"
	"github.com/craig-ford/ralph-kiro/internal/prompt"
	"github.com/craig-ford/ralph-kiro/internal/status"
	"github.com/craig-ford/ralph-kiro/internal/tasks"
)

// Lifecycle values written to the status snapshot.
const (
	StatusInit        = "init"
	StatusRunning     = "running"
	StatusStopped     = "stopped"
	StatusCircuitOpen = "circuit_open"
	StatusCompleted   = "completed"
)

// Controller owns the iteration loop. One controller per working
// directory; the stop sentinel and snapshots live in its state dir.
type Controller struct {
	cfg     config.Config
	runner  agent.Runner
	brk     *breaker.Breaker
	pol     *policy.Policy
	store   *status.Store
	prompts *prompt.Builder
	hist    *db.DB
	log     zerolog.Logger

	runID string

	loopCount       int
	testOnlyLoops   int
	doneSignalLoops int

	sleep time.Duration
}

// New builds a Controller from validated configuration. hist may be
// nil to disable history recording.
func New(cfg config.Config, runner agent.Runner, store *status.Store, hist *db.DB) *Controller {
	return &Controller{
		cfg:    cfg,
		runner: runner,
		brk:    breaker.New(cfg.Breaker.NoProgressThreshold, cfg.Breaker.ErrorThreshold),
		pol:    policy.New(cfg.Policy.MaxTestLoops, cfg.Policy.MaxDoneSignals),
		store:  store,
		prompts: &prompt.Builder{
			Path:          cfg.Prompt.Path,
			IncludeStatus: cfg.Prompt.IncludeStatus,
		},
		hist:  hist,
		log:   logging.Component("loop"),
		sleep: time.Duration(cfg.Loop.SleepSeconds) * time.Second,
	}
}

// SetSleep overrides the inter-iteration delay (for testing).
func (c *Controller) SetSleep(d time.Duration) {
	c.sleep = d
}

// Run executes iterations until a stop condition fires and returns the
// stop reason. The error return is reserved for startup problems such
// as a missing prompt file; per-iteration failures are absorbed.
func (c *Controller) Run(ctx context.Context) (policy.Reason, error) {
	if _, err := c.prompts.Load(); err != nil {
		return "", err
	}
	c.writeStatus(StatusInit, "preparing")

	if snap, ok, err := c.store.ReadBreaker(); err != nil {
		c.log.Warn().Err(err).Msg("read breaker snapshot")
	} else if ok {
		c.brk.Restore(snap)
	}

	if c.hist != nil {
		id, err := c.hist.CreateRun(c.cfg.Prompt.Path, c.cfg.Agent.Command)
		if err != nil {
			c.log.Warn().Err(err).Msg("record run start")
		} else {
			c.runID = id
		}
	}

	c.log.Info().
		Str("agent", c.cfg.Agent.Command).
		Str("prompt", c.cfg.Prompt.Path).
		Int("timeout_minutes", c.cfg.Agent.TimeoutMinutes).
		Msg("starting loop")
	c.writeStatus(StatusRunning, "loop started")

	for {
		if ctx.Err() != nil {
			return c.halt(policy.ReasonManual, StatusStopped, "context cancelled"), nil
		}
		if c.store.StopRequested() {
			if err := c.store.ClearStop(); err != nil {
				c.log.Warn().Err(err).Msg("clear stop sentinel")
			}
			return c.halt(policy.ReasonStopFile, StatusStopped, "stop file observed"), nil
		}

		if !c.brk.Allow() {
			return c.halt(policy.ReasonCircuitOpen, StatusCircuitOpen, "circuit breaker open"), nil
		}

		c.loopCount++
		dec, err := c.iterate(ctx)
		if err != nil {
			return "", err
		}
		if dec.Stop {
			return c.halt(dec.Reason, StatusCompleted, fmt.Sprintf("exit policy: %s", dec.Reason)), nil
		}

		if !sleepCtx(ctx, c.sleep) {
			return c.halt(policy.ReasonManual, StatusStopped, "context cancelled"), nil
		}
	}
}

// iterate runs one agent invocation and everything downstream of it.
func (c *Controller) iterate(ctx context.Context) (policy.Decision, error) {
	before := c.readTasks()

	text, err := c.prompts.Build(c.loopCount, before)
	if err != nil {
		return policy.Decision{}, err
	}

	req := agent.Request{
		Command: c.cfg.Agent.Command,
		Dir:     c.cfg.ProjectDir,
		Prompt:  text,
		Timeout: time.Duration(c.cfg.Agent.TimeoutMinutes) * time.Minute,
		Env:     agent.Environ(c.cfg.Agent.Env),
	}

	inv, err := c.runner.Run(ctx, req)
	if err != nil {
		// The failed invocation still flows through analysis: no
		// output means the breaker counts it as no progress.
		c.log.Error().Err(err).Int("loop", c.loopCount).Msg("agent invocation failed")
	}
	// Runners label the outcome themselves; anything unlabelled is
	// treated as a spawn failure.
	if inv.Outcome == "" {
		inv.Outcome = agent.OutcomeFailed
		inv.ExitCode = -1
	}

	res := analyzer.Analyze(inv.Output)

	state := c.brk.Update(res.FilesChanged, res.HasError)
	brkSnap := c.brk.Snapshot()
	if werr := c.store.WriteBreaker(brkSnap); werr != nil {
		c.log.Warn().Err(werr).Msg("write breaker snapshot")
	}

	if res.TestOnly {
		c.testOnlyLoops++
	} else {
		c.testOnlyLoops = 0
	}
	if res.DoneSignals >= policy.StrongDoneSignals {
		c.doneSignalLoops++
	} else {
		c.doneSignalLoops = 0
	}

	after := c.readTasks()
	dec := c.pol.Evaluate(res, c.testOnlyLoops, c.doneSignalLoops, after)

	decision := "continue"
	if dec.Stop {
		decision = string(dec.Reason)
	}

	c.log.Info().
		Int("loop", c.loopCount).
		Str("outcome", string(inv.Outcome)).
		Int("exit_code", inv.ExitCode).
		Dur("duration", inv.Duration).
		Int("files_changed", res.FilesChanged).
		Bool("has_error", res.HasError).
		Bool("test_only", res.TestOnly).
		Int("done_signals", res.DoneSignals).
		Str("breaker", string(state)).
		Str("decision", decision).
		Msg("iteration complete")

	c.writeStatus(StatusRunning, fmt.Sprintf("iteration %d: %s", c.loopCount, decision))
	c.recordIteration(inv, res, brkSnap, decision)

	return dec, nil
}

// readTasks loads the task list fresh; a missing file is an empty
// summary, any other failure is logged and treated the same.
func (c *Controller) readTasks() tasks.Summary {
	list, err := tasks.ReadFile(c.cfg.Tasks.Path)
	if err != nil {
		c.log.Warn().Err(err).Str("path", c.cfg.Tasks.Path).Msg("read task list")
		return tasks.Summary{}
	}
	return list
}

func (c *Controller) writeStatus(st, msg string) {
	snap := status.Snapshot{
		Status:                     st,
		Message:                    msg,
		LoopCount:                  c.loopCount,
		ConsecutiveTestOnlyLoops:   c.testOnlyLoops,
		ConsecutiveDoneSignalLoops: c.doneSignalLoops,
		Timestamp:                  time.Now().UTC(),
	}
	if err := c.store.WriteStatus(snap); err != nil {
		c.log.Warn().Err(err).Msg("write status snapshot")
	}
}

func (c *Controller) recordIteration(inv agent.Invocation, res analyzer.Result, brkSnap breaker.Snapshot, decision string) {
	if c.hist == nil || c.runID == "" {
		return
	}
	it := db.Iteration{
		RunID:           c.runID,
		LoopCount:       c.loopCount,
		Outcome:         string(inv.Outcome),
		ExitCode:        inv.ExitCode,
		DurationMs:      int(inv.Duration.Milliseconds()),
		FilesChanged:    res.FilesChanged,
		HasError:        res.HasError,
		TestOnly:        res.TestOnly,
		DoneSignals:     res.DoneSignals,
		BreakerState:    string(brkSnap.State),
		NoProgressCount: brkSnap.ConsecutiveNoProgress,
		ErrorCount:      brkSnap.ConsecutiveErrors,
		Decision:        decision,
	}
	if err := c.hist.InsertIteration(it); err != nil {
		c.log.Warn().Err(err).Msg("record iteration")
	}
}

func (c *Controller) halt(reason policy.Reason, st, msg string) policy.Reason {
	c.writeStatus(st, msg)
	if c.hist != nil && c.runID != "" {
		if err := c.hist.FinishRun(c.runID, st, string(reason)); err != nil {
			c.log.Warn().Err(err).Msg("record run finish")
		}
	}
	c.log.Info().
		Str("status", st).
		Str("reason", string(reason)).
		Int("loops", c.loopCount).
		Msg("loop halted")
	return reason
}

// sleepCtx waits for d or until ctx is cancelled, reporting whether
// the full delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
