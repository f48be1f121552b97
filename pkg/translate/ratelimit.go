package translate

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// rateLimiter paces requests to an upstream that throttles aggressive
// clients. After a throttling response every subsequent request waits before
// going out, with the pause doubling up to a ceiling; a single success
// resets the pace. When the upstream names its own backoff (Retry-After),
// that value is used once instead of the computed delay.
type rateLimiter struct {
	mu       sync.Mutex
	initial  time.Duration
	max      time.Duration
	delay    time.Duration
	failures int

	// retryAfter overrides the next computed delay exactly once.
	retryAfter time.Duration
}

func newRateLimiter(initial, max time.Duration) *rateLimiter {
	return &rateLimiter{initial: initial, max: max, delay: initial}
}

// wait blocks for the current pace before a request. Free until the first
// throttle. Honors ctx.
func (l *rateLimiter) wait(ctx context.Context) error {
	l.mu.Lock()
	var d time.Duration
	if l.failures > 0 {
		if l.retryAfter > 0 {
			d = l.retryAfter
			l.retryAfter = 0
		} else {
			d = l.delay + time.Duration(rand.Float64()*float64(l.delay)*0.5)
		}
	}
	l.mu.Unlock()

	if d == 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// success resets the pace to unthrottled.
func (l *rateLimiter) success() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.delay = l.initial
	l.failures = 0
	l.retryAfter = 0
}

// throttled records a rate-limiting response. retryAfter <= 0 grows the
// computed delay instead.
func (l *rateLimiter) throttled(retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if retryAfter > 0 {
		l.retryAfter = retryAfter
	} else if l.failures > 0 {
		l.delay = min(l.delay*2, l.max)
	}
	l.failures++
}
