package retry

import (
	"context"
	"time"
)

// BackoffStrategy computes the pause before retry number attempt (1-based)
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ConstantBackoff pauses Delay before every retry. The zero value retries
// back to back, which is how media fetches are retried unless a retry
// delay is configured.
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// DoublingBackoff starts at Base and doubles on each retry up to Cap. A zero
// Cap means 30 times Base. There is no jitter: a run issues one request at a
// time against a given host.
type DoublingBackoff struct {
	Base time.Duration
	Cap  time.Duration
}

func (db *DoublingBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 || db.Base <= 0 {
		return 0
	}
	limit := db.Cap
	if limit <= 0 {
		limit = 30 * db.Base
	}

	delay := db.Base
	for i := 1; i < attempt; i++ {
		if delay >= limit/2 {
			return limit
		}
		delay *= 2
	}
	if delay > limit {
		return limit
	}
	return delay
}

// Wait sleeps for delay unless ctx ends first
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
