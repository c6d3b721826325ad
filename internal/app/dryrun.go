package app

import (
	"context"
	"io"
	"log/slog"

	"petweights/internal/domain"
)

// DryRunLog reads from an underlying weight log but only logs writes.
type DryRunLog struct {
	domain.WeightLog
	logger *slog.Logger
}

// NewDryRunLog wraps wl so that WriteRange never reaches it. A nil logger
// discards output.
func NewDryRunLog(wl domain.WeightLog, logger *slog.Logger) *DryRunLog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DryRunLog{WeightLog: wl, logger: logger}
}

// WriteRange logs the rows that would be written and reports them as written.
func (d *DryRunLog) WriteRange(ctx context.Context, rng domain.Range, rows []domain.Row) (int, error) {
	for _, r := range rows {
		d.logger.Info("dry run: would write row", "range", rng.A1(), "timestamp", r.Timestamp, "weight", r.Weight)
	}
	return len(rows), nil
}
