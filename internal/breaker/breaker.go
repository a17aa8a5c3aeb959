// Package breaker implements the stagnation/failure circuit breaker
// that halts the loop after sustained no-progress or error iterations.
package breaker

import (
	"fmt"
	"time"
)

// State is the breaker position.
type State string

const (
	StateClosed   State = "closed"
	StateHalfOpen State = "half_open"
	StateOpen     State = "open"
)

// Default trip thresholds, in consecutive iterations.
const (
	DefaultNoProgressThreshold = 3
	DefaultErrorThreshold      = 5
)

// Breaker tracks consecutive no-progress and error runs and trips open
// when either run reaches its threshold. Open is terminal until an
// explicit Reset; HalfOpen is entered only by administrative action.
type Breaker struct {
	state               State
	noProgressThreshold int
	errorThreshold      int

	consecutiveNoProgress int
	consecutiveErrors     int

	lastTransitionReason string
	lastTransitionTime   time.Time
}

// Snapshot is the persisted projection of breaker state.
type Snapshot struct {
	State                 State     `json:"state"`
	ConsecutiveNoProgress int       `json:"consecutive_no_progress"`
	ConsecutiveErrors     int       `json:"consecutive_errors"`
	LastTransitionReason  string    `json:"last_transition_reason"`
	LastTransitionTime    time.Time `json:"last_transition_time"`
}

// New returns a closed breaker. Zero or negative thresholds fall back
// to the defaults.
func New(noProgressThreshold, errorThreshold int) *Breaker {
	if noProgressThreshold <= 0 {
		noProgressThreshold = DefaultNoProgressThreshold
	}
	if errorThreshold <= 0 {
		errorThreshold = DefaultErrorThreshold
	}
	return &Breaker{
		state:                StateClosed,
		noProgressThreshold:  noProgressThreshold,
		errorThreshold:       errorThreshold,
		lastTransitionReason: "initialized",
		lastTransitionTime:   time.Now().UTC(),
	}
}

// Update consumes one iteration's signals and returns the resulting
// state. The two counters run independently: progress clears the
// no-progress run regardless of errors, and a clean iteration clears
// the error run regardless of progress.
func (b *Breaker) Update(filesChanged int, hasError bool) State {
	if filesChanged > 0 {
		b.consecutiveNoProgress = 0
	} else {
		b.consecutiveNoProgress++
	}
	if hasError {
		b.consecutiveErrors++
	} else {
		b.consecutiveErrors = 0
	}

	switch b.state {
	case StateOpen:
		// Terminal until manual reset.
	case StateHalfOpen:
		if filesChanged > 0 && !hasError {
			b.transition(StateClosed, "half-open probe succeeded")
		} else {
			b.transition(StateOpen, "half-open probe failed")
		}
	default:
		if b.consecutiveNoProgress >= b.noProgressThreshold {
			b.transition(StateOpen, fmt.Sprintf("no file changes for %d consecutive iterations", b.consecutiveNoProgress))
		} else if b.consecutiveErrors >= b.errorThreshold {
			b.transition(StateOpen, fmt.Sprintf("errors in %d consecutive iterations", b.consecutiveErrors))
		}
	}
	return b.state
}

// Allow reports whether another iteration may be issued.
func (b *Breaker) Allow() bool {
	return b.state != StateOpen
}

// State returns the current position.
func (b *Breaker) State() State {
	return b.state
}

// Reset forces the breaker closed and zeroes both counters, from any
// state.
func (b *Breaker) Reset() {
	b.consecutiveNoProgress = 0
	b.consecutiveErrors = 0
	b.transition(StateClosed, "manual reset")
}

// HalfOpen places the breaker in the monitoring state: the next update
// either closes it (progress, no error) or reopens it.
func (b *Breaker) HalfOpen() {
	b.transition(StateHalfOpen, "administrative half-open")
}

// Snapshot returns the current persisted projection.
func (b *Breaker) Snapshot() Snapshot {
	return Snapshot{
		State:                 b.state,
		ConsecutiveNoProgress: b.consecutiveNoProgress,
		ConsecutiveErrors:     b.consecutiveErrors,
		LastTransitionReason:  b.lastTransitionReason,
		LastTransitionTime:    b.lastTransitionTime,
	}
}

// Restore loads a previously persisted snapshot. Unrecognized states
// fall back to closed.
func (b *Breaker) Restore(s Snapshot) {
	switch s.State {
	case StateClosed, StateHalfOpen, StateOpen:
		b.state = s.State
	default:
		b.state = StateClosed
	}
	b.consecutiveNoProgress = s.ConsecutiveNoProgress
	b.consecutiveErrors = s.ConsecutiveErrors
	b.lastTransitionReason = s.LastTransitionReason
	b.lastTransitionTime = s.LastTransitionTime
}

// transition records unconditionally: Reset and HalfOpen refresh the
// reason and time even when the state does not change.
func (b *Breaker) transition(to State, reason string) {
	b.state = to
	b.lastTransitionReason = reason
	b.lastTransitionTime = time.Now().UTC()
}
