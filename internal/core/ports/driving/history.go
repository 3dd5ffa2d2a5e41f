package driving

import (
	"context"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
)

// HistoryService reads recorded backup runs.
type HistoryService interface {
	// Recent returns up to limit runs, most recent first.
	Recent(ctx context.Context, limit int) ([]domain.BackupRun, error)
}
