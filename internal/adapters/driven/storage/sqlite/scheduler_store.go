package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
)

// ==================== Scheduler Store ====================

// schedulerStore implements driven.SchedulerStore. Times are stored as
// epoch milliseconds like every other timestamp in the schema.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

type scheduledTaskRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	IntervalSeconds int64          `db:"interval_seconds"`
	LastRun         sql.NullInt64  `db:"last_run"`
	NextRun         sql.NullInt64  `db:"next_run"`
	LastError       sql.NullString `db:"last_error"`
	LastSuccess     sql.NullInt64  `db:"last_success"`
	Enabled         bool           `db:"enabled"`
}

func (r *scheduledTaskRow) toDomain() domain.ScheduledTask {
	return domain.ScheduledTask{
		ID:          r.ID,
		Name:        r.Name,
		Interval:    time.Duration(r.IntervalSeconds) * time.Second,
		LastRun:     fromMillis(r.LastRun),
		NextRun:     fromMillis(r.NextRun),
		LastError:   r.LastError.String,
		LastSuccess: fromMillis(r.LastSuccess),
		Enabled:     r.Enabled,
	}
}

type taskResultRow struct {
	TaskID         string         `db:"task_id"`
	StartedAt      int64          `db:"started_at"`
	EndedAt        int64          `db:"ended_at"`
	Success        bool           `db:"success"`
	Error          sql.NullString `db:"error"`
	ItemsProcessed int            `db:"items_processed"`
}

const scheduledTaskSelect = `
	SELECT id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled
	FROM scheduled_task
`

// GetTask retrieves a scheduled task by ID, or nil.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	var row scheduledTaskRow
	err := sqlx.GetContext(ctx, s.store.conn(ctx), &row, scheduledTaskSelect+" WHERE id = ?", taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting scheduled task: %w", err)
	}
	task := row.toDomain()
	return &task, nil
}

// ListTasks returns all scheduled tasks ordered by ID.
func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	var rows []scheduledTaskRow
	if err := sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, scheduledTaskSelect+" ORDER BY id"); err != nil {
		return nil, fmt.Errorf("listing scheduled tasks: %w", err)
	}
	tasks := make([]domain.ScheduledTask, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, rows[i].toDomain())
	}
	return tasks, nil
}

// SaveTask creates or updates a task.
func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.conn(ctx).ExecContext(ctx, `
		INSERT INTO scheduled_task (id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_seconds = excluded.interval_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_success = excluded.last_success,
			enabled = excluded.enabled
	`, task.ID, task.Name, int64(task.Interval/time.Second),
		toMillis(task.LastRun), toMillis(task.NextRun),
		nullString(task.LastError), toMillis(task.LastSuccess), task.Enabled)
	if err != nil {
		return fmt.Errorf("saving scheduled task: %w", err)
	}
	return nil
}

// RecordResult logs a task execution result.
func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil || result.TaskID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.conn(ctx).ExecContext(ctx, `
		INSERT INTO task_result (task_id, started_at, ended_at, success, error, items_processed)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.TaskID, result.StartedAt.UnixMilli(), result.EndedAt.UnixMilli(),
		result.Success, nullString(result.Error), result.ItemsProcessed)
	if err != nil {
		return fmt.Errorf("recording task result: %w", err)
	}
	return nil
}

// GetTaskHistory returns recent results for a task, most recent first.
func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	var rows []taskResultRow
	err := sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, `
		SELECT task_id, started_at, ended_at, success, error, items_processed
		FROM task_result
		WHERE task_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying task history: %w", err)
	}

	results := make([]domain.TaskResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, domain.TaskResult{
			TaskID:         r.TaskID,
			StartedAt:      time.UnixMilli(r.StartedAt),
			EndedAt:        time.UnixMilli(r.EndedAt),
			Success:        r.Success,
			Error:          r.Error.String,
			ItemsProcessed: r.ItemsProcessed,
		})
	}
	return results, nil
}

// PruneHistory keeps the most recent keep results per task.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.conn(ctx).ExecContext(ctx, `
		DELETE FROM task_result
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY task_id ORDER BY started_at DESC, id DESC) AS rn
				FROM task_result
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning task history: %w", err)
	}
	return nil
}

// toMillis returns nil for the zero time.
func toMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.UnixMilli(v.Int64)
}
