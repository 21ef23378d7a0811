package retryutil

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultAttempts     = 3
	defaultBaseDelay    = 1 * time.Second
	defaultAsyncDelay   = 2 * time.Second
	defaultAsyncTimeout = 12 * time.Second
)

// Do runs fn up to attempts times with exponential backoff between
// failures. The last error is returned once attempts are exhausted or the
// context is cancelled.
func Do(ctx context.Context, logger *slog.Logger, name string, attempts int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	var lastErr error
	delay := baseDelay
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if i == attempts {
			break
		}
		if logger != nil {
			logger.Warn(name+"_attempt_failed", "attempt", i, "delay", delay.String(), "error", lastErr.Error())
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}

// AsyncRetry schedules fn once on a fresh context after delay, detached
// from the caller. Used for best-effort bookkeeping that must still be
// attempted when the originating request context is already done.
func AsyncRetry(logger *slog.Logger, name string, delay, timeout time.Duration, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	if delay <= 0 {
		delay = defaultAsyncDelay
	}
	if timeout <= 0 {
		timeout = defaultAsyncTimeout
	}
	if logger != nil {
		logger.Info(name+"_retry_scheduled", "delay", delay.String(), "timeout", timeout.String())
	}
	go func() {
		timer := time.NewTimer(delay)
		<-timer.C
		timer.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			if logger != nil {
				logger.Warn(name+"_retry_failed", "error", err.Error())
			}
			return
		}
		if logger != nil {
			logger.Info(name + "_retry_ok")
		}
	}()
}
