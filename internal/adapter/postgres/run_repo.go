package postgres

import (
	"context"

	"petweights/internal/domain"
)

var _ domain.RunRepository = (*DB)(nil)

// RecordRun inserts a finished sync run.
func (d *DB) RecordRun(ctx context.Context, run domain.SyncRun) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO sync_runs(id, pet, status, appended, watermark, error, started_at, finished_at) VALUES($1, $2, $3, $4, $5, $6, $7, $8);",
		run.ID, run.Pet, string(run.Status), run.Appended, run.Watermark.UTC(), run.Error, run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	return err
}

// ListRecentRuns returns the most recent runs for pet up to limit. An empty
// pet lists every pet.
func (d *DB) ListRecentRuns(ctx context.Context, pet string, limit int) ([]domain.SyncRun, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, pet, status, appended, watermark, error, started_at, finished_at FROM sync_runs WHERE ($1 = '' OR pet = $1) ORDER BY started_at DESC LIMIT $2;",
		pet, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SyncRun, 0, limit)
	for rows.Next() {
		var r domain.SyncRun
		var status string
		if err := rows.Scan(&r.ID, &r.Pet, &status, &r.Appended, &r.Watermark, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.Status = domain.SyncStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}
