// Package ratelimit implements a fixed-window call counter shared by
// concurrent invocations of a single caller context.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter tracks calls against a budget over a fixed window. The zero
// value is not usable; construct with New.
type Limiter struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time

	now func() time.Time // override in tests
}

func New() *Limiter {
	return &Limiter{now: time.Now}
}

// Check counts one call against the budget. If the budget for the current
// window is already spent it returns limited=true with a message for the
// caller and does not count the call. Increment-and-check is atomic.
func (l *Limiter) Check(maxRequests int, window time.Duration) (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= window {
		l.windowStart = now
		l.count = 0
	}

	if l.count >= maxRequests {
		resetAt := l.windowStart.Add(window)
		return true, fmt.Sprintf("Rate limit exceeded: %d requests per %s. Try again after %s.",
			maxRequests, window, resetAt.UTC().Format(time.RFC3339))
	}

	l.count++
	return false, ""
}
