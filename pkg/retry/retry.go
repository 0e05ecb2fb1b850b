package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "redditdl/pkg/errors"
	"redditdl/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func(ctx context.Context) error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Config is an explicit retry policy. A zero MaxAttempts means a single try.
type Config struct {
	MaxAttempts int
	Backoff     BackoffStrategy
	// RetryIf decides whether err deserves another attempt
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// DefaultConfig matches the historical downloader behaviour: four attempts,
// back to back.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 4,
		Backoff:     &ConstantBackoff{},
		RetryIf:     DefaultRetryIf,
	}
}

// FromSettings builds a policy from configured attempts and delay. A positive
// delay doubles on each retry, capped at 30 times the configured delay.
func FromSettings(attempts int, delay time.Duration, log logger.Logger) *Config {
	cfg := DefaultConfig()
	if attempts > 0 {
		cfg.MaxAttempts = attempts
	}
	if delay > 0 {
		cfg.Backoff = &DoublingBackoff{Base: delay}
	}
	cfg.Logger = log
	return cfg
}

// DefaultRetryIf retries everything except cancellation and error types that
// describe local, permanent conditions.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var typed *errs.Error
	if errors.As(err, &typed) {
		return errs.IsRetryable(typed.Type)
	}
	return true
}

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Do runs op until it succeeds, RetryIf rejects the error, attempts run out,
// or ctx is cancelled. On exhaustion the last error is returned wrapped so
// that both ErrExhausted and the original error match errors.Is/As.
func Do(ctx context.Context, cfg *Config, op Operation) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = &ConstantBackoff{}
	}
	log := logger.OrNop(cfg.Logger)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		delay := backoff.NextDelay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": maxAttempts,
		})

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}

	log.DebugWithFields("max retry attempts exceeded", map[string]interface{}{
		"attempts":   maxAttempts,
		"last_error": lastErr.Error(),
	})
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, lastErr)
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, cfg *Config, op OperationWithResult[T]) (T, error) {
	var result T
	err := Do(ctx, cfg, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}
