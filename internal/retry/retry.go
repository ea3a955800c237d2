// Package retry provides the single automatic retry the HTTP client core
// applies to transport-class and 5xx failures (spec §7: "one automatic
// retry per HTTP call; then surfaces as item failure").
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/p-blackswan/ksync/internal/apperrors"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// DefaultConfig returns the default retry policy: one retry (two attempts
// total) with a short backoff, matching the core's "retry once" contract.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 2,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Jitter:      true,
	}
}

// Do executes fn with exponential backoff. Only retries when the error is
// retryable per apperrors.IsRetryable; non-retryable errors return
// immediately on the first attempt.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !apperrors.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt)))
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		if cfg.Jitter {
			delay = time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
