package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"
)

// DefaultAuditRetentionDays applies when neither the task nor the job set
// a retention.
const DefaultAuditRetentionDays = 90

// AuditEventCleaner deletes audit events past their retention.
type AuditEventCleaner interface {
	DeleteOldEvents(retentionDays int) (int64, error)
}

// CleanupAuditEventsTask removes audit events older than RetentionDays.
// Zero uses the configured retention.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for audit cleanup tasks.
func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        TypeCleanupAuditEvents,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupAuditEvents deletes events older than retentionDays, falling back
// to the job's configured retention.
func (j *Jobs) CleanupAuditEvents(_ context.Context, retentionDays int) (int64, error) {
	if j.Cleaner == nil {
		return 0, fmt.Errorf("audit event cleaner not configured")
	}
	if retentionDays <= 0 {
		retentionDays = j.RetentionDays
	}
	if retentionDays <= 0 {
		retentionDays = DefaultAuditRetentionDays
	}

	deleted, err := j.Cleaner.DeleteOldEvents(retentionDays)
	j.record(TypeCleanupAuditEvents, fmt.Sprintf("Deleted %d audit events older than %d days", deleted, retentionDays), err)
	if err != nil {
		return 0, fmt.Errorf("cleanup audit events: %w", err)
	}

	j.logger().Info("Cleaned up audit events", zap.Int64("deleted", deleted), zap.Int("retention_days", retentionDays))
	return deleted, nil
}

func (j *Jobs) cleanupAuditEventsQueue() backlite.Queue {
	return backlite.NewQueue(func(ctx context.Context, task CleanupAuditEventsTask) error {
		_, err := j.CleanupAuditEvents(ctx, task.RetentionDays)
		return err
	})
}
