package gateway

import "github.com/spetersoncode/mosaic/internal/retry"

// RetryConfig controls how transient provider failures are retried.
type RetryConfig = retry.Config

// DefaultRetryConfig allows 3 attempts with 1s initial backoff doubling to a
// 20s cap and 10% jitter.
func DefaultRetryConfig() RetryConfig {
	return retry.DefaultConfig()
}

// DisabledRetryConfig makes every provider call a single attempt.
func DisabledRetryConfig() RetryConfig {
	return retry.Disabled()
}

// IsTransientError reports whether the gateway would retry err.
func IsTransientError(err error) bool {
	return retry.IsTransient(err)
}
