package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CartPurger deletes carts that have not been written since cutoff
type CartPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper drops idle in-memory state and reports how much it dropped
type Sweeper interface {
	Sweep() int
}

// PurgeCartsTask removes carts older than retention every interval
func PurgeCartsTask(purger CartPurger, retention, interval time.Duration, logger *zap.Logger) Task {
	return Task{
		Name:     "purge-stale-carts",
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := purger.PurgeBefore(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("Purged stale carts", zap.Int64("count", n), zap.Duration("retention", retention))
			}
			return nil
		},
	}
}

// SweepTask calls Sweep every interval
func SweepTask(name string, sweeper Sweeper, interval time.Duration, logger *zap.Logger) Task {
	return Task{
		Name:     name,
		Interval: interval,
		Run: func(context.Context) error {
			if n := sweeper.Sweep(); n > 0 {
				logger.Debug("Swept idle entries", zap.String("task", name), zap.Int("count", n))
			}
			return nil
		},
	}
}
