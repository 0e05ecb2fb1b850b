// Package httpclient is the single HTTP entry point for feed pages, host
// lookups and media downloads.
//
// Every failure comes back as a *errors.Error from redditdl/pkg/errors:
// transport problems are "network", non-2xx statuses keep their code, a
// cancelled context becomes "interrupted" and unusable URLs are
// "invalid_url". The client itself never retries; callers wrap calls in
// redditdl/pkg/retry when they want that.
package httpclient
