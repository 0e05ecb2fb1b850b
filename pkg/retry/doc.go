// Package retry runs an operation under an explicit retry policy.
//
// A Config value is passed to every call instead of living inside the HTTP
// client, so each caller decides how hard to try:
//
//	policy := retry.FromSettings(cfg.Download.RetryAttempts, cfg.Download.RetryDelay, log)
//	body, err := retry.DoWithResult(ctx, policy, func(ctx context.Context) ([]byte, error) {
//		return client.Get(ctx, url)
//	})
//
// Errors typed by redditdl/pkg/errors as already_exists, unsupported_type,
// invalid_url, parsing or interrupted are never retried, and neither is
// context cancellation.
package retry
