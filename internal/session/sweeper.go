package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Sweeper interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// StartSweeper purges sessions idle for longer than ttl every interval
// until ctx is done. The returned channel closes when the loop exits.
func StartSweeper(ctx context.Context, s Sweeper, ttl, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("sweeper")

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info("session sweeper started", zap.Duration("ttl", ttl), zap.Duration("interval", interval))
		for {
			select {
			case <-ctx.Done():
				logger.Info("session sweeper stopped")
				return
			case <-ticker.C:
				n, err := s.DeleteOlderThan(ctx, time.Now().Add(-ttl))
				if err != nil {
					logger.Warn("session sweep failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Info("stale sessions removed", zap.Int("count", n))
				}
			}
		}
	}()
	return done
}
