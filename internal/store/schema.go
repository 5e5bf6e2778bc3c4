package store

import "database/sql"

// migrate creates any missing tables and indexes. Statements are
// idempotent so Open can run them unconditionally.
func migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS llm_calls (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at     INTEGER NOT NULL,
			provider       TEXT NOT NULL,
			model          TEXT NOT NULL,
			purpose        TEXT NOT NULL,
			latency_ms     INTEGER NOT NULL DEFAULT 0,
			success        INTEGER NOT NULL DEFAULT 0,
			input_tokens   INTEGER NOT NULL DEFAULT 0,
			output_tokens  INTEGER NOT NULL DEFAULT 0,
			error_message  TEXT NOT NULL DEFAULT '',
			request_body   TEXT NOT NULL DEFAULT '',
			response_body  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_llm_calls_purpose ON llm_calls (purpose)`,
		`CREATE INDEX IF NOT EXISTS idx_llm_calls_created_at ON llm_calls (created_at)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id               TEXT PRIMARY KEY,
			started_at       INTEGER NOT NULL,
			finished_at      INTEGER NOT NULL DEFAULT 0,
			stages           TEXT NOT NULL DEFAULT '',
			language         TEXT NOT NULL DEFAULT '',
			requested        INTEGER NOT NULL DEFAULT 0,
			generated        INTEGER NOT NULL DEFAULT 0,
			stage1_accepted  INTEGER NOT NULL DEFAULT 0,
			stage2_accepted  INTEGER NOT NULL DEFAULT 0,
			status           TEXT NOT NULL DEFAULT 'running',
			error            TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
