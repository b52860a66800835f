package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	calls   chan struct{}
	expired int
	err     error
}

func (f *fakeExpirer) ExpireReservations(context.Context) (int, error) {
	if f.calls != nil {
		select {
		case f.calls <- struct{}{}:
		default:
		}
	}
	return f.expired, f.err
}

type fakeCleaner struct {
	lastRetention int
	deleted       int64
}

func (f *fakeCleaner) DeleteOldEvents(retentionDays int) (int64, error) {
	f.lastRetention = retentionDays
	return f.deleted, nil
}

type maintenanceEntry struct {
	action string
	failed bool
}

type fakeRecorder struct {
	entries []maintenanceEntry
}

func (f *fakeRecorder) LogMaintenance(action, _ string, err error) {
	f.entries = append(f.entries, maintenanceEntry{action: action, failed: err != nil})
}

func TestJobs_ExpireReservations(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		expirer := &fakeExpirer{expired: 3}
		recorder := &fakeRecorder{}
		jobs := &Jobs{Expirer: expirer, Recorder: recorder}

		n, err := jobs.ExpireReservations(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, recorder.entries)
	})

	t.Run("enabled", func(t *testing.T) {
		recorder := &fakeRecorder{}
		jobs := &Jobs{Expirer: &fakeExpirer{expired: 3}, Recorder: recorder, ExpireEnabled: true}

		n, err := jobs.ExpireReservations(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, []maintenanceEntry{{action: TypeExpireReservations}}, recorder.entries)
	})

	t.Run("failure is recorded", func(t *testing.T) {
		recorder := &fakeRecorder{}
		jobs := &Jobs{Expirer: &fakeExpirer{err: errors.New("disk full")}, Recorder: recorder, ExpireEnabled: true}

		_, err := jobs.ExpireReservations(context.Background())
		require.Error(t, err)
		assert.Equal(t, []maintenanceEntry{{action: TypeExpireReservations, failed: true}}, recorder.entries)
	})
}

func TestJobs_CleanupAuditEvents(t *testing.T) {
	cleaner := &fakeCleaner{deleted: 4}
	jobs := &Jobs{Cleaner: cleaner, RetentionDays: 30}

	deleted, err := jobs.CleanupAuditEvents(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.Equal(t, 30, cleaner.lastRetention)

	_, err = jobs.CleanupAuditEvents(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cleaner.lastRetention)

	jobs.RetentionDays = 0
	_, err = jobs.CleanupAuditEvents(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultAuditRetentionDays, cleaner.lastRetention)

	_, err = (&Jobs{}).CleanupAuditEvents(context.Background(), 0)
	assert.Error(t, err)
}

func TestNewTask(t *testing.T) {
	task, err := NewTask(TypeExpireReservations)
	require.NoError(t, err)
	assert.Equal(t, TypeExpireReservations, task.Config().Name)

	task, err = NewTask(TypeCleanupAuditEvents)
	require.NoError(t, err)
	assert.Equal(t, TypeCleanupAuditEvents, task.Config().Name)

	_, err = NewTask("enrich_book")
	assert.ErrorIs(t, err, ErrUnknownTaskType)

	assert.Equal(t, []string{TypeCleanupAuditEvents, TypeExpireReservations}, Types())
}

func TestTaskConfigs(t *testing.T) {
	cfg := CleanupAuditEventsTask{}.Config()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Backoff)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)

	cfg = ExpireReservationsTask{}.Config()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
}
