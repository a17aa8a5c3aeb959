// Package policy decides, once per iteration, whether the loop should
// stop and why.
package policy

import (
	"github.com/craig-ford/ralph-kiro/internal/analyzer"
	"github.com/craig-ford/ralph-kiro/internal/tasks"
)

// Reason identifies why the loop stopped.
type Reason string

const (
	ReasonTestLoops       Reason = "test_loops"
	ReasonDoneSignals     Reason = "done_signals"
	ReasonProjectComplete Reason = "project_complete"
	ReasonTasksComplete   Reason = "tasks_complete"
	ReasonCircuitOpen     Reason = "circuit_open"
	ReasonStopFile        Reason = "stop_file"
	ReasonManual          Reason = "manual"
)

var validReasons = map[Reason]bool{
	ReasonTestLoops:       true,
	ReasonDoneSignals:     true,
	ReasonProjectComplete: true,
	ReasonTasksComplete:   true,
	ReasonCircuitOpen:     true,
	ReasonStopFile:        true,
	ReasonManual:          true,
}

// Valid reports whether r is a recognized reason code.
func (r Reason) Valid() bool {
	return validReasons[r]
}

// Decision is the verdict for one iteration.
type Decision struct {
	Stop   bool
	Reason Reason
}

// Stop returns a stopping decision with the given reason.
func Stop(reason Reason) Decision {
	return Decision{Stop: true, Reason: reason}
}

// Default debounce limits.
const (
	DefaultMaxTestLoops   = 3
	DefaultMaxDoneSignals = 2
)

// StrongDoneSignals is how many pattern families must vote in a single
// iteration for that iteration alone to end the loop.
const StrongDoneSignals = 2

// Policy applies the layered completion heuristics in fixed precedence
// order. Consecutive-signal rules are checked before the
// single-iteration strong-signal rule so a flapping loop is not masked
// by one strong-looking iteration.
type Policy struct {
	MaxTestLoops   int
	MaxDoneSignals int
}

// New returns a policy with the given limits; zero or negative values
// fall back to the defaults.
func New(maxTestLoops, maxDoneSignals int) *Policy {
	if maxTestLoops <= 0 {
		maxTestLoops = DefaultMaxTestLoops
	}
	if maxDoneSignals <= 0 {
		maxDoneSignals = DefaultMaxDoneSignals
	}
	return &Policy{MaxTestLoops: maxTestLoops, MaxDoneSignals: maxDoneSignals}
}

// Evaluate returns the first matching rule's decision. Each rule is
// sufficient on its own; order is the tie-break.
func (p *Policy) Evaluate(res analyzer.Result, testOnlyLoops, doneSignalLoops int, list tasks.Summary) Decision {
	switch {
	case testOnlyLoops >= p.MaxTestLoops:
		return Stop(ReasonTestLoops)
	case doneSignalLoops >= p.MaxDoneSignals:
		return Stop(ReasonDoneSignals)
	case res.DoneSignals >= StrongDoneSignals:
		return Stop(ReasonProjectComplete)
	case list.Complete():
		return Stop(ReasonTasksComplete)
	default:
		return Decision{}
	}
}
