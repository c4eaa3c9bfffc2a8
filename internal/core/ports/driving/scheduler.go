package driving

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// Scheduler runs background tasks such as the periodic update check.
type Scheduler interface {
	// Start runs due tasks until ctx is cancelled.
	Start(ctx context.Context) error

	// RunDue runs every task that is due once.
	RunDue(ctx context.Context) error

	// Tasks returns the stored state of every task.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// History returns recent runs of a task, most recent first.
	History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)
}
