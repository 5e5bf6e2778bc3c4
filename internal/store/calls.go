package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LLMCallData carries the fields journaled for a single LLM API call.
type LLMCallData struct {
	Provider     string
	Model        string
	Purpose      string
	LatencyMs    int64
	Success      bool
	InputTokens  int
	OutputTokens int
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMCall is a journaled call as read back from the store.
type LLMCall struct {
	ID        int64
	CreatedAt time.Time
	LLMCallData
}

// CallQuery filters and limits call listings. Results are always ordered
// newest first.
type CallQuery struct {
	Limit   int
	Purpose string
}

// PurposeUsage aggregates call volume and token usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates call volume and token usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// CallRepo journals LLM API calls and answers usage queries over them.
type CallRepo interface {
	AppendCall(ctx context.Context, data LLMCallData) error
	ListCalls(ctx context.Context, q CallQuery) ([]LLMCall, error)
	GetCall(ctx context.Context, id int64) (*LLMCall, error)
	UsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	UsageByModel(ctx context.Context) ([]ModelUsage, error)
}

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

type callRepo struct {
	db *sql.DB
}

func (r *callRepo) AppendCall(ctx context.Context, data LLMCallData) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO llm_calls (
			created_at, provider, model, purpose, latency_ms, success,
			input_tokens, output_tokens, error_message, request_body, response_body
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UnixMilli(),
		data.Provider,
		data.Model,
		data.Purpose,
		data.LatencyMs,
		boolToInt(data.Success),
		data.InputTokens,
		data.OutputTokens,
		data.ErrorMessage,
		data.RequestBody,
		data.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("append llm call: %w", err)
	}
	return nil
}

func (r *callRepo) ListCalls(ctx context.Context, q CallQuery) ([]LLMCall, error) {
	query := `
		SELECT id, created_at, provider, model, purpose, latency_ms, success,
		       input_tokens, output_tokens, error_message, request_body, response_body
		FROM llm_calls`
	args := []any{}
	if q.Purpose != "" {
		query += " WHERE purpose = ?"
		args = append(args, q.Purpose)
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list llm calls: %w", err)
	}
	defer rows.Close()

	var calls []LLMCall
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, *c)
	}
	return calls, rows.Err()
}

func (r *callRepo) GetCall(ctx context.Context, id int64) (*LLMCall, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, provider, model, purpose, latency_ms, success,
		       input_tokens, output_tokens, error_message, request_body, response_body
		FROM llm_calls WHERE id = ?`, id)
	c, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get llm call %d: %w", id, err)
	}
	return c, nil
}

func (r *callRepo) UsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT purpose, COUNT(*), SUM(input_tokens), SUM(output_tokens),
		       CAST(AVG(latency_ms) AS INTEGER)
		FROM llm_calls GROUP BY purpose ORDER BY purpose`)
	if err != nil {
		return nil, fmt.Errorf("usage by purpose: %w", err)
	}
	defer rows.Close()

	var usage []PurposeUsage
	for rows.Next() {
		var u PurposeUsage
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan purpose usage: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

func (r *callRepo) UsageByModel(ctx context.Context) ([]ModelUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT model, COUNT(*), SUM(input_tokens), SUM(output_tokens)
		FROM llm_calls GROUP BY model ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("usage by model: %w", err)
	}
	defer rows.Close()

	var usage []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (*LLMCall, error) {
	var c LLMCall
	var createdAt int64
	var success int
	err := row.Scan(
		&c.ID, &createdAt, &c.Provider, &c.Model, &c.Purpose, &c.LatencyMs,
		&success, &c.InputTokens, &c.OutputTokens, &c.ErrorMessage,
		&c.RequestBody, &c.ResponseBody,
	)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = time.UnixMilli(createdAt)
	c.Success = success != 0
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
