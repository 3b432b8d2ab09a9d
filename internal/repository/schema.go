package repository

import (
	"context"
	"fmt"
)

// schema is valid in both SQLite and Postgres. Ids are text UUIDs and
// timestamps are unix nanoseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id               TEXT PRIMARY KEY,
		source_name      TEXT NOT NULL,
		sha256           TEXT NOT NULL UNIQUE,
		institute        TEXT NOT NULL,
		programme        TEXT NOT NULL,
		result_date      TEXT NOT NULL,
		examination_info TEXT NOT NULL,
		student_count    INTEGER NOT NULL,
		result_json      TEXT NOT NULL,
		created_at       BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		document_id   TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		position      INTEGER NOT NULL,
		reg_no        TEXT NOT NULL,
		name          TEXT NOT NULL,
		final_result  TEXT NOT NULL,
		subject_count INTEGER NOT NULL,
		PRIMARY KEY (document_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS students_reg_no_idx ON students (reg_no)`,
	`CREATE TABLE IF NOT EXISTS extract_jobs (
		id            TEXT PRIMARY KEY,
		source_path   TEXT NOT NULL,
		document_id   TEXT REFERENCES documents(id) ON DELETE SET NULL,
		status        TEXT NOT NULL,
		error_message TEXT,
		method        TEXT NOT NULL DEFAULT '',
		pages         INTEGER NOT NULL DEFAULT 0,
		students      INTEGER NOT NULL DEFAULT 0,
		subjects      INTEGER NOT NULL DEFAULT 0,
		started_at    BIGINT NOT NULL,
		finished_at   BIGINT
	)`,
}

func (db *DB) migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return nil
}
