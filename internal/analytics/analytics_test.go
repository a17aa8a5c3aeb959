package analytics

import (
	"testing"

	"github.com/craig-ford/ralph-kiro/internal/db"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func insertIteration(t *testing.T, d *db.DB, it db.Iteration) {
	t.Helper()
	if it.Outcome == "" {
		it.Outcome = "completed"
	}
	if it.BreakerState == "" {
		it.BreakerState = "closed"
	}
	if it.Decision == "" {
		it.Decision = "continue"
	}
	if err := d.InsertIteration(it); err != nil {
		t.Fatalf("insert iteration: %v", err)
	}
}

func seedRun(t *testing.T, d *db.DB, promptPath string) string {
	t.Helper()
	id, err := d.CreateRun(promptPath, "kiro")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	return id
}

// --- QueryOutcomes ---

func TestQueryOutcomes(t *testing.T) {
	d := testDB(t)
	run := seedRun(t, d, "PROMPT.md")

	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 1, Outcome: "completed", DurationMs: 1000})
	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 2, Outcome: "completed", DurationMs: 2000})
	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 3, Outcome: "timed_out", DurationMs: 900000})
	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 4, Outcome: "failed", DurationMs: 500})

	results, err := QueryOutcomes(d, "")
	if err != nil {
		t.Fatalf("QueryOutcomes: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 outcome groups, got %d", len(results))
	}
	// Alphabetical: completed, failed, timed_out
	if results[0].Outcome != "completed" || results[0].Count != 2 {
		t.Errorf("results[0] = %+v, want completed/2", results[0])
	}
	if results[0].Pct != 50.0 {
		t.Errorf("completed pct = %v, want 50.0", results[0].Pct)
	}
	if results[1].Outcome != "failed" || results[1].Count != 1 {
		t.Errorf("results[1] = %+v, want failed/1", results[1])
	}
	if results[2].Outcome != "timed_out" || results[2].Count != 1 {
		t.Errorf("results[2] = %+v, want timed_out/1", results[2])
	}
}

func TestQueryOutcomesFilteredByRun(t *testing.T) {
	d := testDB(t)
	runA := seedRun(t, d, "PROMPT.md")
	runB := seedRun(t, d, "PROMPT.md")

	insertIteration(t, d, db.Iteration{RunID: runA, LoopCount: 1, Outcome: "completed"})
	insertIteration(t, d, db.Iteration{RunID: runB, LoopCount: 1, Outcome: "failed"})

	results, err := QueryOutcomes(d, runA)
	if err != nil {
		t.Fatalf("QueryOutcomes: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 outcome group for run A, got %d", len(results))
	}
	if results[0].Outcome != "completed" || results[0].Pct != 100.0 {
		t.Errorf("results[0] = %+v, want completed/100%%", results[0])
	}
}

func TestQueryOutcomesEmpty(t *testing.T) {
	d := testDB(t)

	results, err := QueryOutcomes(d, "")
	if err != nil {
		t.Fatalf("QueryOutcomes: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results on empty db, got %d", len(results))
	}
}

// --- QuerySignalDistribution ---

func TestQuerySignalDistribution(t *testing.T) {
	d := testDB(t)
	run := seedRun(t, d, "PROMPT.md")

	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 1, DoneSignals: 0})
	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 2, DoneSignals: 0})
	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 3, DoneSignals: 0})
	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 4, DoneSignals: 2})

	results, err := QuerySignalDistribution(d, "")
	if err != nil {
		t.Fatalf("QuerySignalDistribution: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(results))
	}
	if results[0].Signals != 0 || results[0].Count != 3 || results[0].Pct != 75.0 {
		t.Errorf("results[0] = %+v, want 0/3/75%%", results[0])
	}
	if results[1].Signals != 2 || results[1].Count != 1 || results[1].Pct != 25.0 {
		t.Errorf("results[1] = %+v, want 2/1/25%%", results[1])
	}
}

// --- QueryRunSummaries ---

func TestQueryRunSummaries(t *testing.T) {
	d := testDB(t)
	run := seedRun(t, d, "PROMPT.md")

	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 1, FilesChanged: 2, DurationMs: 4000})
	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 2, FilesChanged: 1, HasError: true, DurationMs: 6000})
	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 3, TestOnly: true, DurationMs: 2000})
	insertIteration(t, d, db.Iteration{RunID: run, LoopCount: 4, FilesChanged: 3, DurationMs: 8000, Decision: "tasks_complete"})

	if err := d.FinishRun(run, "completed", "tasks_complete"); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	results, err := QueryRunSummaries(d, 10)
	if err != nil {
		t.Fatalf("QueryRunSummaries: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(results))
	}

	rs := results[0]
	if rs.RunID != run {
		t.Errorf("run_id = %q, want %q", rs.RunID, run)
	}
	if rs.Iterations != 4 {
		t.Errorf("iterations = %d, want 4", rs.Iterations)
	}
	if rs.ErrorRate != 25.0 {
		t.Errorf("error rate = %v, want 25.0", rs.ErrorRate)
	}
	if rs.TestOnlyRate != 25.0 {
		t.Errorf("test-only rate = %v, want 25.0", rs.TestOnlyRate)
	}
	if rs.AvgFiles != 1.5 {
		t.Errorf("avg files = %v, want 1.5", rs.AvgFiles)
	}
	if rs.AvgDuration != 5.0 {
		t.Errorf("avg duration = %v, want 5.0 seconds", rs.AvgDuration)
	}
	if rs.StopReason != "tasks_complete" {
		t.Errorf("stop reason = %q, want tasks_complete", rs.StopReason)
	}
}

func TestQueryRunSummariesIncludesEmptyRun(t *testing.T) {
	d := testDB(t)
	seedRun(t, d, "PROMPT.md")

	results, err := QueryRunSummaries(d, 10)
	if err != nil {
		t.Fatalf("QueryRunSummaries: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(results))
	}
	if results[0].Iterations != 0 {
		t.Errorf("iterations = %d, want 0", results[0].Iterations)
	}
	if results[0].AvgFiles != 0 || results[0].ErrorRate != 0 {
		t.Errorf("empty run should have zero aggregates: %+v", results[0])
	}
}

// --- QueryTotals ---

func TestQueryTotals(t *testing.T) {
	d := testDB(t)
	runA := seedRun(t, d, "PROMPT.md")
	runB := seedRun(t, d, "PROMPT.md")

	insertIteration(t, d, db.Iteration{RunID: runA, LoopCount: 1, FilesChanged: 2, DurationMs: 1000})
	insertIteration(t, d, db.Iteration{RunID: runA, LoopCount: 2, FilesChanged: 0, HasError: true, DurationMs: 3000})
	insertIteration(t, d, db.Iteration{RunID: runB, LoopCount: 1, FilesChanged: 4, DurationMs: 5000})

	totals, err := QueryTotals(d)
	if err != nil {
		t.Fatalf("QueryTotals: %v", err)
	}
	if totals.Runs != 2 {
		t.Errorf("runs = %d, want 2", totals.Runs)
	}
	if totals.Iterations != 3 {
		t.Errorf("iterations = %d, want 3", totals.Iterations)
	}
	if totals.ErrorRate != 33.3 {
		t.Errorf("error rate = %v, want 33.3", totals.ErrorRate)
	}
	if totals.AvgFiles != 2.0 {
		t.Errorf("avg files = %v, want 2.0", totals.AvgFiles)
	}
	if totals.AvgDuration != 3.0 {
		t.Errorf("avg duration = %v, want 3.0", totals.AvgDuration)
	}
	if totals.P50Duration != 3.0 {
		t.Errorf("p50 = %v, want 3.0", totals.P50Duration)
	}
	if totals.P95Duration != 4.8 {
		t.Errorf("p95 = %v, want 4.8", totals.P95Duration)
	}
}

func TestQueryTotalsEmpty(t *testing.T) {
	d := testDB(t)

	totals, err := QueryTotals(d)
	if err != nil {
		t.Fatalf("QueryTotals: %v", err)
	}
	if totals.Runs != 0 || totals.Iterations != 0 {
		t.Errorf("expected zero totals, got %+v", totals)
	}
	if totals.AvgDuration != 0 || totals.P95Duration != 0 {
		t.Errorf("expected zero duration stats, got %+v", totals)
	}
}

// --- helpers ---

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	if got := percentile(sorted, 50); got != 3.0 {
		t.Errorf("p50 = %v, want 3.0", got)
	}
	if got := percentile(sorted, 100); got != 5.0 {
		t.Errorf("p100 = %v, want 5.0", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("p50 of empty = %v, want 0", got)
	}
}

func TestPct(t *testing.T) {
	if got := pct(1, 3); got != 33.3 {
		t.Errorf("pct(1,3) = %v, want 33.3", got)
	}
	if got := pct(0, 0); got != 0 {
		t.Errorf("pct(0,0) = %v, want 0", got)
	}
}
