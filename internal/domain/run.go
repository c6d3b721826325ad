package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the outcome of a sync run that did not fail.
type SyncStatus string

const (
	StatusAppended       SyncStatus = "appended"
	StatusUpToDate       SyncStatus = "up_to_date"
	StatusNoData         SyncStatus = "no_data"
	StatusEntityNotFound SyncStatus = "entity_not_found"
	StatusFailed         SyncStatus = "failed"
)

// SyncRun is one ledger entry describing a finished sync run.
type SyncRun struct {
	ID         uuid.UUID  `json:"id"`
	Pet        string     `json:"pet"`
	Status     SyncStatus `json:"status"`
	Appended   int        `json:"appended"`
	Watermark  time.Time  `json:"watermark"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
}

// RunRepository is the port for the sync run ledger.
type RunRepository interface {
	RecordRun(ctx context.Context, run SyncRun) error
	ListRecentRuns(ctx context.Context, pet string, limit int) ([]SyncRun, error)
}
