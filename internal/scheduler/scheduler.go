// Package scheduler fires the maintenance jobs on their cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/tasks"
)

// ErrJobRunning is returned by RunNow while the same job is still executing.
var ErrJobRunning = errors.New("job is already running")

// Enqueuer hands a task to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Scheduler enqueues each maintenance job on its schedule. Without a queue
// the jobs run in-process on the cron goroutine.
type Scheduler struct {
	cfg    config.Maintenance
	jobs   *tasks.Jobs
	queue  Enqueuer
	logger *zap.Logger

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
	entries   map[string]cron.EntryID
	busy      map[string]bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a scheduler. queue may be nil.
func New(cfg config.Maintenance, jobs *tasks.Jobs, queue Enqueuer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:     cfg,
		jobs:    jobs,
		queue:   queue,
		logger:  logger.Named("scheduler"),
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
		busy:    make(map[string]bool),
		ctx:     context.Background(),
	}
}

// Start registers the jobs and starts the cron loop. It returns nil without
// scheduling anything when maintenance is disabled. Cancelling ctx stops
// the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.cfg.Enabled {
		s.logger.Info("Maintenance scheduler disabled")
		return nil
	}

	schedules := map[string]string{
		tasks.TypeExpireReservations: s.cfg.ExpireSchedule,
		tasks.TypeCleanupAuditEvents: s.cfg.AuditCleanupSchedule,
	}
	for taskType, schedule := range schedules {
		if schedule == "" {
			continue
		}
		if err := ValidateCronSchedule(schedule); err != nil {
			return fmt.Errorf("invalid cron schedule %q for %s: %w", schedule, taskType, err)
		}
		taskType := taskType
		entryID, err := s.cron.AddFunc(schedule, func() { s.fire(taskType) })
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", taskType, err)
		}
		s.entries[taskType] = entryID
		s.logger.Info("Scheduled maintenance job",
			zap.String("task", taskType),
			zap.String("schedule", schedule),
			zap.String("description", DescribeSchedule(schedule)))
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.ctx = runCtx
	s.cancel = cancel
	s.cron.Start()
	s.isRunning = true

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	cancel()
	s.logger.Info("Maintenance scheduler stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// NextRuns returns the next activation per task type.
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]time.Time, len(s.entries))
	if !s.isRunning {
		return next
	}
	for taskType, id := range s.entries {
		next[taskType] = s.cron.Entry(id).Next
	}
	return next
}

// RunNow executes a job synchronously in the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context, taskType string) (string, error) {
	if !s.acquire(taskType) {
		return "", fmt.Errorf("%s: %w", taskType, ErrJobRunning)
	}
	defer s.release(taskType)

	switch taskType {
	case tasks.TypeExpireReservations:
		n, err := s.jobs.ExpireReservations(ctx)
		return fmt.Sprintf("expired %d reservations", n), err
	case tasks.TypeCleanupAuditEvents:
		n, err := s.jobs.CleanupAuditEvents(ctx, 0)
		return fmt.Sprintf("deleted %d audit events", n), err
	}
	return "", tasks.ErrUnknownTaskType
}

func (s *Scheduler) fire(taskType string) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if s.queue != nil {
		task, err := tasks.NewTask(taskType)
		if err != nil {
			s.logger.Error("Unknown scheduled task", zap.String("task", taskType))
			return
		}
		id, err := s.queue.Enqueue(ctx, task)
		if err != nil {
			s.logger.Error("Failed to enqueue scheduled task", zap.String("task", taskType), zap.Error(err))
			return
		}
		s.logger.Debug("Enqueued scheduled task", zap.String("task", taskType), zap.String("task_id", id))
		return
	}

	if _, err := s.RunNow(ctx, taskType); err != nil {
		s.logger.Error("Scheduled job failed", zap.String("task", taskType), zap.Error(err))
	}
}

func (s *Scheduler) acquire(taskType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[taskType] {
		return false
	}
	s.busy[taskType] = true
	return true
}

func (s *Scheduler) release(taskType string) {
	s.mu.Lock()
	s.busy[taskType] = false
	s.mu.Unlock()
}
