package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driving"
	"github.com/custodia-labs/catalog-sync/internal/logger"
	"github.com/custodia-labs/catalog-sync/internal/metrics"
)

// TaskFunc runs one scheduled task and returns how many items it handled.
type TaskFunc func(ctx context.Context) (int, error)

type registeredTask struct {
	name     string
	interval time.Duration
	run      TaskFunc
}

// Scheduler runs registered tasks at their interval. Task state is
// persisted so a restarted process keeps the schedule.
type Scheduler struct {
	store driven.SchedulerStore
	tick  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	tasks   map[string]registeredTask
	running bool
}

var _ driving.Scheduler = (*Scheduler)(nil)

// NewScheduler creates a scheduler that looks for due tasks every minute.
func NewScheduler(store driven.SchedulerStore) *Scheduler {
	return &Scheduler{
		store: store,
		tick:  time.Minute,
		now:   time.Now,
		tasks: make(map[string]registeredTask),
	}
}

// Register adds a task. An interval of zero or less registers it disabled.
func (s *Scheduler) Register(id, name string, interval time.Duration, run TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[id] = registeredTask{name: name, interval: interval, run: run}
}

// Start runs due tasks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.RunDue(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.RunDue(ctx); err != nil {
				logger.Warn("Scheduler: %v", err)
			}
		}
	}
}

// RunDue brings stored tasks in line with the registered ones and runs
// every task that is due. Task failures are recorded, not returned.
func (s *Scheduler) RunDue(ctx context.Context) error {
	s.mu.Lock()
	registered := make(map[string]registeredTask, len(s.tasks))
	for id, t := range s.tasks {
		registered[id] = t
	}
	s.mu.Unlock()

	for id, t := range registered {
		if err := s.ensureTask(ctx, id, t); err != nil {
			return err
		}
	}

	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	now := s.now()
	for i := range tasks {
		task := &tasks[i]
		t, ok := registered[task.ID]
		if !ok || !task.IsDue(now) {
			continue
		}
		if err := s.runTask(ctx, task, t.run); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates the stored state of a registered task.
// A new task is due right away.
func (s *Scheduler) ensureTask(ctx context.Context, id string, t registeredTask) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("loading task %s: %w", id, err)
	}

	enabled := t.interval > 0
	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     t.name,
			Interval: t.interval,
			Enabled:  enabled,
			NextRun:  s.now(),
		}
	} else {
		if task.Interval == t.interval && task.Enabled == enabled && task.Name == t.name {
			return nil
		}
		if task.Interval != t.interval {
			task.NextRun = s.now()
			if !task.LastRun.IsZero() {
				task.NextRun = task.LastRun.Add(t.interval)
			}
		}
		task.Name = t.name
		task.Interval = t.interval
		task.Enabled = enabled
	}
	if err := s.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("saving task %s: %w", id, err)
	}
	return nil
}

// runTask runs a task and stores its outcome. Only store errors are returned.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask, run TaskFunc) error {
	result := &domain.TaskResult{TaskID: task.ID, StartedAt: s.now()}
	logger.Debug("Running task %s", task.ID)

	items, err := run(ctx)

	result.EndedAt = s.now()
	result.ItemsProcessed = items
	if err != nil {
		logger.Warn("Task %s failed: %v", task.ID, err)
		result.Error = err.Error()
		task.LastError = err.Error()
		metrics.TaskRunsTotal.WithLabelValues(task.ID, metrics.ResultError).Inc()
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
		metrics.TaskRunsTotal.WithLabelValues(task.ID, metrics.ResultOK).Inc()
	}
	task.LastRun = result.StartedAt
	task.NextRun = result.EndedAt.Add(task.Interval)

	if err := s.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("saving task %s: %w", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		return fmt.Errorf("recording result of %s: %w", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, domain.TaskHistoryRetention); err != nil {
		logger.Warn("Pruning task history: %v", err)
	}
	return nil
}

// Tasks returns the stored state of every task.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	return s.store.ListTasks(ctx)
}

// History returns recent runs of a task, most recent first.
func (s *Scheduler) History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = domain.TaskHistoryRetention
	}
	return s.store.GetTaskHistory(ctx, taskID, limit)
}

// UpdateCheckTask checks installed packages for updates and publishes the
// count on the updates_available gauge.
func UpdateCheckTask(updates driving.UpdateService) TaskFunc {
	return func(ctx context.Context) (int, error) {
		result, err := updates.Check(ctx)
		if err != nil {
			return 0, err
		}
		metrics.UpdatesAvailable.Set(float64(len(result.Updates)))
		for i := range result.Updates {
			u := &result.Updates[i]
			logger.Info("Update available: %s %s -> %s", u.PackageName,
				u.InstalledVersionName, u.Update.Manifest.VersionName)
		}
		return len(result.Updates), nil
	}
}
