package driven

import (
	"context"

	"github.com/custodia-labs/ggbackup/internal/core/domain"
)

// RunStore persists backup run history.
type RunStore interface {
	// SaveRun records a finished run.
	SaveRun(ctx context.Context, run domain.BackupRun) error

	// ListRuns returns up to limit runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.BackupRun, error)
}
