// Package journal keeps run metadata in SQLite. Report text is never
// stored; only what is needed to audit when and how analyses ran.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/callpulse/internal/feature"
)

const createRunsTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	origin TEXT NOT NULL,
	feature TEXT NOT NULL,
	manager_id TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	cause TEXT NOT NULL DEFAULT '',
	records INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	started_at_utc TEXT NOT NULL
)`

const createRunsIndexSQL = `CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at_utc)`

const insertRunSQL = `
INSERT INTO runs (
	run_id,
	origin,
	feature,
	manager_id,
	kind,
	cause,
	records,
	duration_ms,
	started_at_utc
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const recentRunsSQL = `
SELECT run_id, origin, feature, manager_id, kind, cause, records, duration_ms, started_at_utc
FROM runs
ORDER BY started_at_utc DESC, rowid DESC
LIMIT ?`

// Entry is one journaled run.
type Entry struct {
	RunID     string
	Origin    string
	Feature   string
	ManagerID string
	Kind      string
	Cause     string
	Records   int
	Duration  time.Duration
	StartedAt time.Time
}

// Journal is a SQLite-backed feature.Recorder.
type Journal struct {
	db *sql.DB
}

// Open opens (and creates) the journal at path.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer; runs from many conversations serialize here
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range []string{createRunsTableSQL, createRunsIndexSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create journal schema: %w", err)
		}
	}
	return &Journal{db: db}, nil
}

// Close releases the database.
func (j *Journal) Close() error { return j.db.Close() }

// Record implements feature.Recorder.
func (j *Journal) Record(ctx context.Context, r feature.Result, p feature.Params, at time.Time) error {
	origin := p.Origin
	if origin == "" {
		origin = "unknown"
	}
	_, err := j.db.ExecContext(ctx, insertRunSQL,
		r.RunID,
		origin,
		string(r.Feature),
		p.ManagerID,
		r.Kind.String(),
		r.Cause,
		r.Records,
		r.Duration.Milliseconds(),
		at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, recentRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			ms      int64
			started string
		)
		if err := rows.Scan(&e.RunID, &e.Origin, &e.Feature, &e.ManagerID, &e.Kind, &e.Cause, &e.Records, &ms, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			e.StartedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
