package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may start now, consuming the slot if so
	Allow() bool
	// Wait blocks until a request may start or ctx is done
	Wait(ctx context.Context) error
	// Reset forgets previous requests
	Reset()
}

// Interval spaces request starts at least Every apart. The first request is
// never delayed.
type Interval struct {
	mu      sync.Mutex
	every   time.Duration
	limiter *rate.Limiter
}

// NewInterval creates a limiter allowing one request per every. A
// non-positive interval disables limiting.
func NewInterval(every time.Duration) *Interval {
	iv := &Interval{every: every}
	iv.limiter = newRateLimiter(every)
	return iv
}

func newRateLimiter(every time.Duration) *rate.Limiter {
	if every <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(every), 1)
}

// Every returns the configured spacing
func (iv *Interval) Every() time.Duration {
	return iv.every
}

func (iv *Interval) current() *rate.Limiter {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return iv.limiter
}

// Allow checks if a request can proceed
func (iv *Interval) Allow() bool {
	return iv.current().Allow()
}

// Wait blocks until the next request may start
func (iv *Interval) Wait(ctx context.Context) error {
	return iv.current().Wait(ctx)
}

// Reset lets the next request through immediately
func (iv *Interval) Reset() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.limiter = newRateLimiter(iv.every)
}
