package policy

import (
	"testing"

	"github.com/craig-ford/ralph-kiro/internal/analyzer"
	"github.com/craig-ford/ralph-kiro/internal/tasks"
)

func TestEvaluatePrecedence(t *testing.T) {
	p := New(3, 2)

	cases := []struct {
		name            string
		res             analyzer.Result
		testOnlyLoops   int
		doneSignalLoops int
		list            tasks.Summary
		want            Decision
	}{
		{
			name: "continue by default",
			want: Decision{},
		},
		{
			name:          "test loops at limit",
			testOnlyLoops: 3,
			want:          Stop(ReasonTestLoops),
		},
		{
			name:          "test loops above limit",
			testOnlyLoops: 7,
			want:          Stop(ReasonTestLoops),
		},
		{
			name:            "done signal loops at limit",
			doneSignalLoops: 2,
			want:            Stop(ReasonDoneSignals),
		},
		{
			name: "strong single iteration",
			res:  analyzer.Result{DoneSignals: 2},
			want: Stop(ReasonProjectComplete),
		},
		{
			name: "weak single iteration continues",
			res:  analyzer.Result{DoneSignals: 1},
			want: Decision{},
		},
		{
			name: "all tasks checked off",
			list: tasks.Summary{Total: 5, Completed: 5},
			want: Stop(ReasonTasksComplete),
		},
		{
			name: "empty task list never completes",
			list: tasks.Summary{Total: 0, Completed: 0},
			want: Decision{},
		},
		{
			name: "partially complete task list continues",
			list: tasks.Summary{Total: 5, Completed: 4},
			want: Decision{},
		},
		{
			name:          "test loops outrank strong done signals",
			testOnlyLoops: 3,
			res:           analyzer.Result{DoneSignals: 4},
			want:          Stop(ReasonTestLoops),
		},
		{
			name:            "consecutive done signals outrank current iteration",
			doneSignalLoops: 2,
			res:             analyzer.Result{DoneSignals: 4},
			want:            Stop(ReasonDoneSignals),
		},
		{
			name: "strong signal outranks task completion",
			res:  analyzer.Result{DoneSignals: 3},
			list: tasks.Summary{Total: 2, Completed: 2},
			want: Stop(ReasonProjectComplete),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := p.Evaluate(c.res, c.testOnlyLoops, c.doneSignalLoops, c.list)
			if got != c.want {
				t.Errorf("Evaluate() = %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	p := New(0, -1)
	if p.MaxTestLoops != DefaultMaxTestLoops {
		t.Errorf("MaxTestLoops = %d, want %d", p.MaxTestLoops, DefaultMaxTestLoops)
	}
	if p.MaxDoneSignals != DefaultMaxDoneSignals {
		t.Errorf("MaxDoneSignals = %d, want %d", p.MaxDoneSignals, DefaultMaxDoneSignals)
	}
}

func TestReasonValid(t *testing.T) {
	for _, r := range []Reason{
		ReasonTestLoops, ReasonDoneSignals, ReasonProjectComplete,
		ReasonTasksComplete, ReasonCircuitOpen, ReasonStopFile, ReasonManual,
	} {
		if !r.Valid() {
			t.Errorf("Reason %q should be valid", r)
		}
	}
	if Reason("coffee_break").Valid() {
		t.Error("unknown reason should not be valid")
	}
}
