package taskqueue

import (
	"context"
	"log/slog"
	"math"
	"time"
)

const defaultMaxRetries = 3

// retry calls fn up to maxRetries times with exponential backoff starting at 100ms.
// A non-retryable error returned by fn ends the loop immediately.
func retry(ctx context.Context, op, taskID string, maxRetries int, fn func() error, retryable func(error) bool) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			slog.DebugContext(ctx, "retrying task "+op,
				slog.String("task_id", taskID),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if retryable != nil && !retryable(err) {
			return err
		}
	}

	slog.ErrorContext(ctx, "all retries exhausted for task "+op,
		slog.String("task_id", taskID),
		slog.Int("max_retries", maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return lastErr
}
