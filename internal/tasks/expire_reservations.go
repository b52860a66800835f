package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"
)

// ReservationExpirer cancels reservations whose hold period has passed.
type ReservationExpirer interface {
	ExpireReservations(ctx context.Context) (int, error)
}

// ExpireReservationsTask frees books held by stale reservations.
type ExpireReservationsTask struct{}

// Config returns the queue configuration for expiry tasks.
func (t ExpireReservationsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        TypeExpireReservations,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExpireReservations runs one expiry pass. It does nothing unless expiry
// is switched on.
func (j *Jobs) ExpireReservations(ctx context.Context) (int, error) {
	if !j.ExpireEnabled {
		j.logger().Debug("Reservation expiry disabled, skipping")
		return 0, nil
	}
	if j.Expirer == nil {
		return 0, fmt.Errorf("reservation expirer not configured")
	}

	expired, err := j.Expirer.ExpireReservations(ctx)
	j.record(TypeExpireReservations, fmt.Sprintf("Expired %d reservations", expired), err)
	if err != nil {
		return expired, fmt.Errorf("expire reservations: %w", err)
	}

	if expired > 0 {
		j.logger().Info("Expired reservations", zap.Int("count", expired))
	}
	return expired, nil
}

func (j *Jobs) expireReservationsQueue() backlite.Queue {
	return backlite.NewQueue(func(ctx context.Context, _ ExpireReservationsTask) error {
		_, err := j.ExpireReservations(ctx)
		return err
	})
}
