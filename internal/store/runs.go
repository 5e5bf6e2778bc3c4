package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run records one pipeline invocation: which stages ran, how many items
// survived each, and how it ended.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Stages         string
	Language       string
	Requested      int
	Generated      int
	Stage1Accepted int
	Stage2Accepted int
	Status         string
	Error          string
}

// RunRepo persists pipeline run records.
type RunRepo interface {
	// BeginRun inserts a new run in the running state. It assigns the ID
	// and StartedAt fields on the passed run.
	BeginRun(ctx context.Context, run *Run) error
	// FinishRun writes the final counters and status for a run.
	FinishRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

type runRepo struct {
	db *sql.DB
}

func (r *runRepo) BeginRun(ctx context.Context, run *Run) error {
	run.ID = uuid.New().String()
	run.StartedAt = time.Now()
	run.Status = RunStatusRunning

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, stages, language, requested, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UnixMilli(),
		run.Stages,
		run.Language,
		run.Requested,
		run.Status,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

func (r *runRepo) FinishRun(ctx context.Context, run *Run) error {
	run.FinishedAt = time.Now()
	if run.Status == RunStatusRunning {
		run.Status = RunStatusCompleted
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, generated = ?, stage1_accepted = ?,
		    stage2_accepted = ?, status = ?, error = ?
		WHERE id = ?`,
		run.FinishedAt.UnixMilli(),
		run.Generated,
		run.Stage1Accepted,
		run.Stage2Accepted,
		run.Status,
		run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	return nil
}

func (r *runRepo) GetRun(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, stages, language, requested,
		       generated, stage1_accepted, stage2_accepted, status, error
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (r *runRepo) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, started_at, finished_at, stages, language, requested,
		       generated, stage1_accepted, stage2_accepted, status, error
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var startedAt, finishedAt int64
	err := row.Scan(
		&run.ID, &startedAt, &finishedAt, &run.Stages, &run.Language,
		&run.Requested, &run.Generated, &run.Stage1Accepted,
		&run.Stage2Accepted, &run.Status, &run.Error,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(startedAt)
	if finishedAt > 0 {
		run.FinishedAt = time.UnixMilli(finishedAt)
	}
	return &run, nil
}
