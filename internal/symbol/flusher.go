package symbol

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RunFlusher checkpoints r every interval until ctx is cancelled or r is
// closed. Failed flushes are logged and retried on the next tick; their
// changes stay queued in the meantime.
//
// RunFlusher blocks; run it in its own goroutine. It does not close r.
func RunFlusher(ctx context.Context, r *Registry, interval time.Duration, logger *zap.Logger) error {
	if interval <= 0 {
		return errors.New("flush interval must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := r.Flush(ctx)
			switch {
			case err == nil:
			case errors.Is(err, ErrClosed):
				return nil
			case ctx.Err() != nil:
				return nil
			default:
				logger.Warn("periodic symbol flush failed", zap.Error(err))
			}
		}
	}
}
