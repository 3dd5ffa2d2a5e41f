package services

import (
	"context"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driven"
	"github.com/custodia-labs/ggbackup/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// DefaultHistoryLimit is the number of runs listed when no limit is given.
const DefaultHistoryLimit = 10

// HistoryService reads recorded backup runs.
type HistoryService struct {
	store driven.RunStore
}

// NewHistoryService creates a history service.
func NewHistoryService(store driven.RunStore) *HistoryService {
	return &HistoryService{store: store}
}

// Recent returns up to limit runs, most recent first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.BackupRun, error) {
	if s.store == nil {
		return nil, domain.ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.store.ListRuns(ctx, limit)
}
