package rest

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRequestSpacing is the minimum delay enforced between consecutive
// requests to the service.
const DefaultRequestSpacing = 200 * time.Millisecond

// throttle spaces outgoing requests and applies a shared backoff period
// after the service responds with 429.
type throttle struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

func newThrottle(spacing time.Duration) *throttle {
	if spacing <= 0 {
		spacing = DefaultRequestSpacing
	}
	return &throttle{
		limiter: rate.NewLimiter(rate.Every(spacing), 1),
	}
}

// wait blocks until a request may proceed. It honours any backoff set by
// recordRetryAfter before waiting on the spacing limiter.
func (t *throttle) wait(ctx context.Context) error {
	t.mu.Lock()
	retryAt := t.retryAt
	t.mu.Unlock()

	if until := time.Until(retryAt); until > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(until):
		}
	}

	return t.limiter.Wait(ctx)
}

// recordRetryAfter sets a backoff period from a Retry-After value. A zero or
// negative value applies a conservative default.
func (t *throttle) recordRetryAfter(d time.Duration) {
	if d <= 0 {
		d = 10 * time.Second
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if retryAt := time.Now().Add(d); retryAt.After(t.retryAt) {
		t.retryAt = retryAt
	}
}
