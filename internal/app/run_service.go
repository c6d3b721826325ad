package app

import (
	"context"
	"errors"

	"petweights/internal/domain"
)

// RunService encapsulates sync ledger queries.
type RunService struct {
	repo domain.RunRepository
}

// NewRunService creates a RunService backed by the given ledger.
func NewRunService(repo domain.RunRepository) *RunService {
	return &RunService{repo: repo}
}

// Recent returns the latest runs for pet, newest first. An empty pet lists
// runs for every pet.
func (s *RunService) Recent(ctx context.Context, pet string, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}
	if limit > 500 {
		limit = 500
	}
	return s.repo.ListRecentRuns(ctx, pet, limit)
}
