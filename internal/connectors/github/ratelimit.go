package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// proactiveRate throttles to ~1.2 req/sec (4320/hour), below the
	// authenticated quota of 5000/hour.
	proactiveRate = 1.2

	// minBuffer is the quota floor; below it we wait for the reset.
	minBuffer = 100

	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
)

// limiter combines proactive throttling with reactive quota tracking fed
// from GitHub response headers.
type limiter struct {
	mu        sync.Mutex
	remaining int
	resetAt   time.Time
	bucket    *rate.Limiter
}

func newLimiter() *limiter {
	return &limiter{
		remaining: 5000, // assume a full quota until headers say otherwise
		bucket:    rate.NewLimiter(rate.Limit(proactiveRate), 1),
	}
}

// wait blocks until a request may be sent.
func (l *limiter) wait(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	remaining := l.remaining
	resetAt := l.resetAt
	l.mu.Unlock()

	if remaining < minBuffer && time.Now().Before(resetAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(resetAt)):
		}
	}
	return nil
}

// observe updates quota state from response headers.
func (l *limiter) observe(resp *http.Response) {
	if resp == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if v := resp.Header.Get(headerRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			l.remaining = n
		}
	}
	if v := resp.Header.Get(headerReset); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			l.resetAt = time.Unix(ts, 0)
		}
	}
}
