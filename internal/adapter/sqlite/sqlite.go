// Package sqlite implements the sync run ledger in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"petweights/internal/domain"
)

var _ domain.RunRepository = (*DB)(nil)

// DB wraps a SQLite connection and implements domain.RunRepository.
type DB struct {
	sql *sql.DB
}

// Open creates the database file and its parent directory if needed and
// runs migrations.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	s, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			pet TEXT NOT NULL,
			status TEXT NOT NULL,
			appended INTEGER NOT NULL DEFAULT 0,
			watermark TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_pet_started_at ON sync_runs(pet, started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// RecordRun inserts a finished sync run. Times are stored as RFC 3339 UTC
// strings so they sort lexically.
func (d *DB) RecordRun(ctx context.Context, run domain.SyncRun) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO sync_runs(id, pet, status, appended, watermark, error, started_at, finished_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?);`,
		run.ID.String(), run.Pet, string(run.Status), run.Appended,
		formatTime(run.Watermark), run.Error, formatTime(run.StartedAt), formatTime(run.FinishedAt),
	)
	return err
}

// ListRecentRuns returns the most recent runs for pet up to limit. An empty
// pet lists every pet.
func (d *DB) ListRecentRuns(ctx context.Context, pet string, limit int) ([]domain.SyncRun, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, pet, status, appended, watermark, error, started_at, finished_at FROM sync_runs WHERE (? = '' OR pet = ?) ORDER BY started_at DESC LIMIT ?;`,
		pet, pet, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SyncRun, 0, limit)
	for rows.Next() {
		var (
			r                            domain.SyncRun
			id, status                   string
			watermark, started, finished string
		)
		if err := rows.Scan(&id, &r.Pet, &status, &r.Appended, &watermark, &r.Error, &started, &finished); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		r.Status = domain.SyncStatus(status)
		if r.Watermark, err = parseTime(watermark); err != nil {
			return nil, err
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if r.FinishedAt, err = parseTime(finished); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored time %q: %w", s, err)
	}
	return t, nil
}
