// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"petweights/internal/domain"
)

// SyncResult describes a sync run that completed without error.
type SyncResult struct {
	Pet       string            `json:"pet"`
	Status    domain.SyncStatus `json:"status"`
	Watermark time.Time         `json:"watermark"`
	Appended  int               `json:"appended"`
	Stale     int               `json:"stale"`
	FirstNew  time.Time         `json:"firstNew,omitempty"`
	LastNew   time.Time         `json:"lastNew,omitempty"`
	Range     domain.Range      `json:"-"`
}

// SyncService appends readings the weight log has not seen yet.
//
// The weight log must be sorted ascending by timestamp: the watermark is taken
// from its last row without checking the rows above it. Only one sync may run
// against a given sheet at a time.
type SyncService struct {
	source domain.DeviceSource
	log    domain.WeightLog
	creds  domain.AccountCredentials
	runs   domain.RunRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncService creates a SyncService reading from source and appending to
// log. A nil logger discards output.
func NewSyncService(source domain.DeviceSource, log domain.WeightLog, creds domain.AccountCredentials, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SyncService{
		source: source,
		log:    log,
		creds:  creds,
		logger: logger,
		now:    time.Now,
	}
}

// WithLedger records every run in runs. Ledger failures are logged and never
// change the outcome of a run.
func (s *SyncService) WithLedger(runs domain.RunRepository) *SyncService {
	s.runs = runs
	return s
}

// Sync performs one incremental sync for pet.
func (s *SyncService) Sync(ctx context.Context, pet string) (SyncResult, error) {
	started := s.now()
	res, err := s.sync(ctx, pet)
	if err != nil {
		s.logger.Error("sync failed", "pet", pet, "error", err)
	} else {
		s.logger.Info("sync finished", "pet", pet, "status", res.Status, "appended", res.Appended, "stale", res.Stale)
	}
	s.record(ctx, started, res, err)
	return res, err
}

// Watch syncs pet immediately and then every interval until ctx is done.
// Retryable failures are retried on the next tick; any other failure stops
// the loop and is returned. When ctx is done, Watch returns the error of the
// last run, or nil if it succeeded.
func (s *SyncService) Watch(ctx context.Context, pet string, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("interval must be > 0")
	}

	var last error
	run := func() error {
		_, err := s.Sync(ctx, pet)
		switch {
		case err == nil:
			last = nil
			return nil
		case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
			// interrupted by shutdown; keep the outcome of the previous run
			return nil
		}
		last = err
		if !domain.IsRetryable(err) {
			return err
		}
		s.logger.Warn("sync will be retried", "pet", pet, "in", interval)
		return nil
	}

	if err := run(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := run(); err != nil {
				return err
			}
		case <-ctx.Done():
			s.logger.Info("watch stopped", "pet", pet)
			return last
		}
	}
}

func (s *SyncService) sync(ctx context.Context, pet string) (SyncResult, error) {
	res := SyncResult{Pet: pet, Watermark: domain.Epoch}

	existing, err := s.log.ReadRange(ctx, domain.Range{Sheet: pet, StartRow: domain.FirstDataRow})
	if err != nil {
		return res, classify(domain.ErrReadLog, err)
	}
	if n := len(existing); n > 0 {
		last, err := domain.ParseTimestamp(existing[n-1].Timestamp)
		if err != nil {
			return res, fmt.Errorf("row %d: %w", domain.FirstDataRow+n-1, err)
		}
		res.Watermark = last
	}
	s.logger.Debug("weight log read", "pet", pet, "rows", len(existing), "watermark", res.Watermark)

	readings, status, err := s.fetch(ctx, pet)
	if err != nil {
		return res, err
	}
	if status != "" {
		res.Status = status
		return res, nil
	}

	fresh := make([]domain.Reading, 0, len(readings))
	for _, r := range readings {
		if r.Timestamp.After(res.Watermark) {
			fresh = append(fresh, r)
			continue
		}
		res.Stale++
		s.logger.Debug("dropping stale reading", "pet", pet, "timestamp", r.Timestamp, "weight", r.Weight)
	}
	if len(fresh) == 0 {
		res.Status = domain.StatusUpToDate
		return res, nil
	}

	domain.SortReadings(fresh)
	rows := make([]domain.Row, len(fresh))
	for i, r := range fresh {
		rows[i] = r.Row()
	}

	start := domain.FirstDataRow + len(existing)
	res.Range = domain.Range{Sheet: pet, StartRow: start, EndRow: start + len(rows) - 1}
	n, err := s.log.WriteRange(ctx, res.Range, rows)
	if err != nil {
		return res, classify(domain.ErrWrite, err)
	}

	res.Status = domain.StatusAppended
	res.Appended = n
	res.FirstNew = fresh[0].Timestamp
	res.LastNew = fresh[len(fresh)-1].Timestamp
	return res, nil
}

// fetch returns the pet's readings, or a terminal status when there is
// nothing to sync. The session is closed on every path.
func (s *SyncService) fetch(ctx context.Context, pet string) ([]domain.Reading, domain.SyncStatus, error) {
	sess, err := s.source.Connect(ctx, s.creds)
	if err != nil {
		return nil, "", classify(domain.ErrFetch, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Warn("disconnect failed", "error", err)
		}
	}()

	pets, err := sess.ListPets(ctx)
	if err != nil {
		return nil, "", classify(domain.ErrFetch, err)
	}
	p, ok := domain.FindPet(pets, pet)
	if !ok {
		s.logger.Warn("pet not found on account", "pet", pet, "pets", len(pets))
		return nil, domain.StatusEntityNotFound, nil
	}

	readings, err := sess.FetchReadings(ctx, p.ID)
	if err != nil {
		return nil, "", classify(domain.ErrFetch, err)
	}
	if len(readings) == 0 {
		s.logger.Info("device returned no readings", "pet", pet)
		return nil, domain.StatusNoData, nil
	}
	return readings, "", nil
}

func (s *SyncService) record(ctx context.Context, started time.Time, res SyncResult, err error) {
	if s.runs == nil {
		return
	}
	run := domain.SyncRun{
		ID:         uuid.New(),
		Pet:        res.Pet,
		Status:     res.Status,
		Appended:   res.Appended,
		Watermark:  res.Watermark,
		StartedAt:  started,
		FinishedAt: s.now(),
	}
	if err != nil {
		run.Status = domain.StatusFailed
		run.Error = err.Error()
	}
	if rerr := s.runs.RecordRun(context.WithoutCancel(ctx), run); rerr != nil {
		s.logger.Warn("recording sync run failed", "pet", res.Pet, "error", rerr)
	}
}

// classify tags err with the failure class of the step that produced it,
// unless the adapter already did or the cause is an authentication failure.
func classify(class, err error) error {
	if errors.Is(err, class) || errors.Is(err, domain.ErrAuth) {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}
