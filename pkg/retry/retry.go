// Package retry runs fallible operations with exponential backoff and jitter.
// Errors are classified through model.IsTransient: permanent failures abort
// immediately, transient ones are retried up to the configured attempt limit.
package retry

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/translationfiesta/backtranslate/pkg/model"
)

// Config controls backoff behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt; each subsequent
	// wait doubles, capped at MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff before jitter.
	MaxDelay time.Duration
}

// DefaultConfig matches the retry behavior of the translation pipeline:
// four attempts, 500ms base delay, 30s ceiling.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// Operation is a zero-argument fallible call.
type Operation[T any] func(ctx context.Context) (T, error)

// Do executes op, retrying transient failures with jittered exponential
// backoff. Attempt numbering starts at 1. The wait between attempts honors
// ctx; cancellation aborts the wait immediately and returns ctx.Err().
// When attempts are exhausted the last error is returned wrapped in
// *model.NetworkError.
func Do[T any](ctx context.Context, cfg Config, logger *slog.Logger, op Operation[T]) (T, error) {
	var zero T
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !model.IsTransient(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := backoff(cfg, attempt)
		logger.Warn("retrying after transient failure",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", delay,
			"error", err,
		)

		if err := wait(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, &model.NetworkError{
		Message: "retries exhausted",
		Err:     lastErr,
	}
}

// backoff computes min(MaxDelay, BaseDelay*2^(attempt-1)) with multiplicative
// jitter uniform in [0.7, 1.3].
func backoff(cfg Config, attempt int) time.Duration {
	delay := cfg.BaseDelay << (attempt - 1)
	if delay > cfg.MaxDelay || delay <= 0 {
		delay = cfg.MaxDelay
	}
	jitter := 0.7 + rand.Float64()*0.6
	return time.Duration(float64(delay) * jitter)
}

// wait sleeps for d or until ctx is done, whichever comes first.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
