// Package history persists per-cycle outcomes to SQLite. The daily summary
// and the CLI history view read from here, so cycle results survive the
// deliberate daily process restart.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cycles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cycle_id TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	outcome TEXT NOT NULL,
	uploaded INTEGER NOT NULL DEFAULT 0,
	cancellations INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);
`

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Entry is one recorded cycle.
type Entry struct {
	CycleID       string
	StartedAt     time.Time
	FinishedAt    time.Time
	Outcome       string
	Uploaded      int
	Cancellations int
	Error         string
}

// Totals aggregates entries over a window.
type Totals struct {
	Cycles        int
	Success       int
	Failure       int
	Uploaded      int
	Cancellations int
}

// Store manages cycle history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts one cycle entry.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO cycles (cycle_id, started_at, finished_at, outcome, uploaded, cancellations, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.CycleID,
			entry.StartedAt.UTC(),
			entry.FinishedAt.UTC(),
			entry.Outcome,
			entry.Uploaded,
			entry.Cancellations,
			entry.Error,
		)
		return err
	})
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT cycle_id, started_at, finished_at, outcome, uploaded, cancellations, error
		 FROM cycles ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent cycles: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.CycleID,
			&entry.StartedAt,
			&entry.FinishedAt,
			&entry.Outcome,
			&entry.Uploaded,
			&entry.Cancellations,
			&entry.Error,
		); err != nil {
			return nil, fmt.Errorf("scan cycle entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// TotalsSince aggregates all entries started at or after cutoff.
func (s *Store) TotalsSince(ctx context.Context, cutoff time.Time) (Totals, error) {
	var totals Totals
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome != 'success' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(uploaded), 0),
			COALESCE(SUM(cancellations), 0)
		 FROM cycles WHERE started_at >= ?`, cutoff.UTC()).
		Scan(&totals.Cycles, &totals.Success, &totals.Failure, &totals.Uploaded, &totals.Cancellations)
	if err != nil {
		return Totals{}, fmt.Errorf("aggregate cycle totals: %w", err)
	}
	return totals, nil
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isBusy(lastErr) {
			return lastErr
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
