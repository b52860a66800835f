// Package tasks runs the library's maintenance jobs, either through the
// backlite queue or directly.
package tasks

import (
	"errors"
	"sort"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"
)

const (
	TypeExpireReservations = "expire_reservations"
	TypeCleanupAuditEvents = "cleanup_audit_events"
)

var ErrUnknownTaskType = errors.New("unknown task type")

// MaintenanceRecorder writes job outcomes to the audit log.
type MaintenanceRecorder interface {
	LogMaintenance(action, description string, err error)
}

// Jobs holds what the maintenance jobs act on. Nil Recorder and Logger are
// allowed.
type Jobs struct {
	Expirer       ReservationExpirer
	Cleaner       AuditEventCleaner
	Recorder      MaintenanceRecorder
	ExpireEnabled bool
	RetentionDays int
	Logger        *zap.Logger
}

// Queues returns one backlite queue per job, ready for Client.Register.
func (j *Jobs) Queues() []backlite.Queue {
	return []backlite.Queue{
		j.expireReservationsQueue(),
		j.cleanupAuditEventsQueue(),
	}
}

// NewTask builds a task of the named type with default parameters.
func NewTask(taskType string) (backlite.Task, error) {
	switch taskType {
	case TypeExpireReservations:
		return ExpireReservationsTask{}, nil
	case TypeCleanupAuditEvents:
		return CleanupAuditEventsTask{}, nil
	}
	return nil, ErrUnknownTaskType
}

// Types lists the task types NewTask accepts.
func Types() []string {
	types := []string{TypeExpireReservations, TypeCleanupAuditEvents}
	sort.Strings(types)
	return types
}

func (j *Jobs) record(action, description string, err error) {
	if j.Recorder != nil {
		j.Recorder.LogMaintenance(action, description, err)
	}
}

func (j *Jobs) logger() *zap.Logger {
	if j.Logger == nil {
		return zap.NewNop()
	}
	return j.Logger
}
