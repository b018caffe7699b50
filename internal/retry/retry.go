package retry

import (
	"context"
	"errors"
	"time"

	ai "github.com/spetersoncode/mosaic"
)

// Wait describes a pause before the next attempt.
type Wait struct {
	// Attempt is the attempt that just failed (1-indexed).
	Attempt     int
	MaxAttempts int
	Delay       time.Duration
	Err         error
}

// Notify is called before each backoff wait. It must not block.
type Notify func(Wait)

// Do calls fn until it succeeds, returns a non-transient error, or the
// attempt budget runs out. The last error is returned unchanged. A server
// supplied Retry-After longer than the backoff delay wins.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return DoNotify(ctx, cfg, nil, fn)
}

// DoNotify is Do with a hook that observes every backoff wait.
func DoNotify[T any](ctx context.Context, cfg Config, notify Notify, fn func() (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)

	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt == attempts || !IsTransient(err) {
			return zero, err
		}

		delay := max(cfg.Delay(attempt-1), serverDelay(err))
		if notify != nil {
			notify(Wait{Attempt: attempt, MaxAttempts: attempts, Delay: delay, Err: err})
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// serverDelay is the Retry-After carried by a categorized error, or 0.
func serverDelay(err error) time.Duration {
	var ce ai.CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}
