package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

const (
	tableEvents   = "attempt_events"
	tableMastery  = "mastery_records"
	tableCursors  = "mastery_cursors"
	tableSessions = "sessions"
	tableCourses  = "courses"
)

// Timestamps are stored as UTC unix nanoseconds.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`,
	`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`,
	`CREATE TABLE IF NOT EXISTS attempt_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		timestamp INTEGER NOT NULL,
		course_id TEXT NOT NULL,
		learner_id TEXT NOT NULL,
		node_id TEXT NOT NULL,
		outcome TEXT NOT NULL,
		score REAL NOT NULL,
		effort_spent REAL NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS attempt_events_learner ON attempt_events (course_id, learner_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS attempt_events_session ON attempt_events (session_id)`,
	`CREATE TABLE IF NOT EXISTS mastery_records (
		course_id TEXT NOT NULL,
		learner_id TEXT NOT NULL,
		node_id TEXT NOT NULL,
		level REAL NOT NULL,
		last_reviewed_at INTEGER NOT NULL,
		attempt_count INTEGER NOT NULL,
		ever_mastered INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (course_id, learner_id, node_id)
	)`,
	`CREATE TABLE IF NOT EXISTS mastery_cursors (
		course_id TEXT NOT NULL,
		learner_id TEXT NOT NULL,
		last_sequence INTEGER NOT NULL,
		PRIMARY KEY (course_id, learner_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		course_id TEXT NOT NULL,
		learner_id TEXT NOT NULL,
		budget REAL NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		hash TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		loaded_at INTEGER NOT NULL
	)`,
}

func migrate(ctx context.Context, drv *entsql.Driver) error {
	for _, stmt := range ddl {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}
