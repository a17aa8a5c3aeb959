// Package analytics computes aggregate statistics over the iteration
// history database.
package analytics

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
)

// DB is the interface for database queries used by analytics.
type DB interface {
	Conn() *sql.DB
}

// OutcomeCount holds iteration counts per invocation outcome.
type OutcomeCount struct {
	Outcome string  `json:"outcome"`
	Count   int     `json:"count"`
	Pct     float64 `json:"pct"`
}

// QueryOutcomes returns iteration counts grouped by outcome. runID
// narrows to one run; empty covers everything.
func QueryOutcomes(database DB, runID string) ([]OutcomeCount, error) {
	query := `SELECT outcome, COUNT(*) FROM iterations`
	args := []interface{}{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` GROUP BY outcome ORDER BY outcome`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var results []OutcomeCount
	total := 0
	for rows.Next() {
		var oc OutcomeCount
		if err := rows.Scan(&oc.Outcome, &oc.Count); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		total += oc.Count
		results = append(results, oc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		results[i].Pct = pct(results[i].Count, total)
	}
	return results, nil
}

// SignalDist holds the distribution of done-signal strengths across
// iterations.
type SignalDist struct {
	Signals int     `json:"signals"`
	Count   int     `json:"count"`
	Pct     float64 `json:"pct"`
}

// QuerySignalDistribution returns how many iterations matched each
// done-signal strength (0 through 4).
func QuerySignalDistribution(database DB, runID string) ([]SignalDist, error) {
	query := `SELECT done_signals, COUNT(*) FROM iterations`
	args := []interface{}{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` GROUP BY done_signals ORDER BY done_signals`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query signal distribution: %w", err)
	}
	defer rows.Close()

	var results []SignalDist
	total := 0
	for rows.Next() {
		var sd SignalDist
		if err := rows.Scan(&sd.Signals, &sd.Count); err != nil {
			return nil, fmt.Errorf("scan signal distribution: %w", err)
		}
		total += sd.Count
		results = append(results, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		results[i].Pct = pct(results[i].Count, total)
	}
	return results, nil
}

// RunSummary aggregates one run's iterations.
type RunSummary struct {
	RunID        string  `json:"run_id"`
	StartedAt    string  `json:"started_at"`
	StopReason   string  `json:"stop_reason"`
	Iterations   int     `json:"iterations"`
	ErrorRate    float64 `json:"error_rate_pct"`
	TestOnlyRate float64 `json:"test_only_rate_pct"`
	AvgFiles     float64 `json:"avg_files_changed"`
	AvgDuration  float64 `json:"avg_duration_seconds"`
}

// QueryRunSummaries returns per-run aggregates, newest first.
func QueryRunSummaries(database DB, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := database.Conn().Query(`
		SELECT r.id, r.started_at, r.stop_reason,
			COUNT(i.id) as iterations,
			SUM(CASE WHEN i.has_error THEN 1 ELSE 0 END) as errors,
			SUM(CASE WHEN i.test_only THEN 1 ELSE 0 END) as test_only,
			SUM(i.files_changed) as files,
			SUM(i.duration_ms) as duration_ms
		FROM runs r
		LEFT JOIN iterations i ON i.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var rs RunSummary
		var stopReason sql.NullString
		var errors, testOnly, files, durationMs sql.NullInt64
		if err := rows.Scan(&rs.RunID, &rs.StartedAt, &stopReason, &rs.Iterations,
			&errors, &testOnly, &files, &durationMs); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		if stopReason.Valid {
			rs.StopReason = stopReason.String
		}
		if rs.Iterations > 0 {
			rs.ErrorRate = pct(int(errors.Int64), rs.Iterations)
			rs.TestOnlyRate = pct(int(testOnly.Int64), rs.Iterations)
			rs.AvgFiles = round1(float64(files.Int64) / float64(rs.Iterations))
			rs.AvgDuration = round1(float64(durationMs.Int64) / 1000.0 / float64(rs.Iterations))
		}
		results = append(results, rs)
	}
	return results, rows.Err()
}

// Totals holds whole-database aggregates.
type Totals struct {
	Runs        int     `json:"runs"`
	Iterations  int     `json:"iterations"`
	ErrorRate   float64 `json:"error_rate_pct"`
	AvgFiles    float64 `json:"avg_files_changed"`
	AvgDuration float64 `json:"avg_duration_seconds"`
	P50Duration float64 `json:"p50_duration_seconds"`
	P95Duration float64 `json:"p95_duration_seconds"`
}

// QueryTotals returns aggregates across every recorded run.
func QueryTotals(database DB) (Totals, error) {
	var t Totals

	if err := database.Conn().QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&t.Runs); err != nil {
		return t, fmt.Errorf("count runs: %w", err)
	}

	var errors, files sql.NullInt64
	err := database.Conn().QueryRow(`
		SELECT COUNT(*),
			SUM(CASE WHEN has_error THEN 1 ELSE 0 END),
			SUM(files_changed)
		FROM iterations`,
	).Scan(&t.Iterations, &errors, &files)
	if err != nil {
		return t, fmt.Errorf("aggregate iterations: %w", err)
	}
	if t.Iterations > 0 {
		t.ErrorRate = pct(int(errors.Int64), t.Iterations)
		t.AvgFiles = round1(float64(files.Int64) / float64(t.Iterations))
	}

	rows, err := database.Conn().Query(`SELECT duration_ms FROM iterations`)
	if err != nil {
		return t, fmt.Errorf("query durations: %w", err)
	}
	defer rows.Close()

	var durations []float64
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return t, fmt.Errorf("scan duration: %w", err)
		}
		durations = append(durations, float64(ms)/1000.0)
	}
	if err := rows.Err(); err != nil {
		return t, err
	}

	sort.Float64s(durations)
	t.AvgDuration = avg(durations)
	t.P50Duration = percentile(durations, 50)
	t.P95Duration = percentile(durations, 95)

	return t, nil
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return round1(sum / float64(len(values)))
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return round1(sorted[lower])
	}
	weight := rank - float64(lower)
	return round1(sorted[lower]*(1-weight) + sorted[upper]*weight)
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
