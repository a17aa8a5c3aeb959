package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run represents a row in the runs table: one controller lifetime from
// start to halt.
type Run struct {
	ID           string
	StartedAt    string
	FinishedAt   string
	PromptPath   string
	AgentCommand string
	FinalStatus  string
	StopReason   string
}

// Iteration represents a row in the iterations table: one agent
// invocation plus the analysis and decisions that followed it.
type Iteration struct {
	ID              int
	RunID           string
	LoopCount       int
	Outcome         string
	ExitCode        int
	DurationMs      int
	FilesChanged    int
	HasError        bool
	TestOnly        bool
	DoneSignals     int
	BreakerState    string
	NoProgressCount int
	ErrorCount      int
	Decision        string
	CreatedAt       string
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CreateRun inserts a new run and returns its generated id.
func (d *DB) CreateRun(promptPath, agentCommand string) (string, error) {
	id := uuid.New().String()
	_, err := d.conn.Exec(
		`INSERT INTO runs (id, started_at, prompt_path, agent_command) VALUES (?, ?, ?, ?)`,
		id, nowRFC3339(), promptPath, agentCommand,
	)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

// FinishRun records the final status and stop reason for a run.
func (d *DB) FinishRun(id, finalStatus, stopReason string) error {
	res, err := d.conn.Exec(
		`UPDATE runs SET finished_at = ?, final_status = ?, stop_reason = ? WHERE id = ?`,
		nowRFC3339(), finalStatus, stopReason, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// InsertIteration records one completed iteration. CreatedAt defaults
// to now when empty.
func (d *DB) InsertIteration(it Iteration) error {
	createdAt := it.CreatedAt
	if createdAt == "" {
		createdAt = nowRFC3339()
	}
	_, err := d.conn.Exec(
		`INSERT INTO iterations
		 (run_id, loop_count, outcome, exit_code, duration_ms, files_changed,
		  has_error, test_only, done_signals, breaker_state, no_progress_count,
		  error_count, decision, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.RunID, it.LoopCount, it.Outcome, it.ExitCode, it.DurationMs, it.FilesChanged,
		it.HasError, it.TestOnly, it.DoneSignals, it.BreakerState, it.NoProgressCount,
		it.ErrorCount, it.Decision, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert iteration: %w", err)
	}
	return nil
}

// GetRun returns the run with the given id, or nil if none exists.
func (d *DB) GetRun(id string) (*Run, error) {
	row := d.conn.QueryRow(
		`SELECT id, started_at, finished_at, prompt_path, agent_command, final_status, stop_reason
		 FROM runs WHERE id = ?`,
		id,
	)
	return scanRun(row)
}

// LatestRun returns the most recently started run, or nil if the
// database is empty.
func (d *DB) LatestRun() (*Run, error) {
	row := d.conn.QueryRow(
		`SELECT id, started_at, finished_at, prompt_path, agent_command, final_status, stop_reason
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`,
	)
	return scanRun(row)
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var finishedAt, finalStatus, stopReason sql.NullString
	err := row.Scan(&r.ID, &r.StartedAt, &finishedAt, &r.PromptPath, &r.AgentCommand, &finalStatus, &stopReason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.String
	}
	if finalStatus.Valid {
		r.FinalStatus = finalStatus.String
	}
	if stopReason.Valid {
		r.StopReason = stopReason.String
	}
	return &r, nil
}

// ListRuns returns the most recent runs, newest first, capped at limit.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(
		`SELECT id, started_at, finished_at, prompt_path, agent_command, final_status, stop_reason
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finishedAt, finalStatus, stopReason sql.NullString
		if err := rows.Scan(&r.ID, &r.StartedAt, &finishedAt, &r.PromptPath, &r.AgentCommand, &finalStatus, &stopReason); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finishedAt.Valid {
			r.FinishedAt = finishedAt.String
		}
		if finalStatus.Valid {
			r.FinalStatus = finalStatus.String
		}
		if stopReason.Valid {
			r.StopReason = stopReason.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListIterations returns all iterations for a run in loop order.
func (d *DB) ListIterations(runID string) ([]Iteration, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, loop_count, outcome, exit_code, duration_ms, files_changed,
		        has_error, test_only, done_signals, breaker_state, no_progress_count,
		        error_count, decision, created_at
		 FROM iterations WHERE run_id = ? ORDER BY loop_count`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list iterations: %w", err)
	}
	defer rows.Close()

	var its []Iteration
	for rows.Next() {
		var it Iteration
		if err := rows.Scan(&it.ID, &it.RunID, &it.LoopCount, &it.Outcome, &it.ExitCode,
			&it.DurationMs, &it.FilesChanged, &it.HasError, &it.TestOnly, &it.DoneSignals,
			&it.BreakerState, &it.NoProgressCount, &it.ErrorCount, &it.Decision, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		its = append(its, it)
	}
	return its, rows.Err()
}
