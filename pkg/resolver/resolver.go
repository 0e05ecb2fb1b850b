package resolver

import (
	"context"
	"net/http"

	"redditdl/pkg/logger"
)

// Resolver expands a post URL into zero or more direct media URLs
type Resolver interface {
	Resolve(ctx context.Context, url string) ([]string, error)
}

// Matcher reports whether a strategy handles url
type Matcher interface {
	Match(url string) bool
}

// Host is one host-specific strategy
type Host interface {
	Resolver
	Matcher
	Name() string
}

// Fetcher is the slice of the HTTP client the strategies need
type Fetcher interface {
	GetBody(ctx context.Context, url string) ([]byte, http.Header, error)
	GetJSON(ctx context.Context, url string, target interface{}) error
}

// Registry dispatches a URL to the first matching host and passes it through
// unchanged when no host matches.
type Registry struct {
	hosts  []Host
	logger logger.Logger
}

// NewRegistry creates a registry trying hosts in order
func NewRegistry(log logger.Logger, hosts ...Host) *Registry {
	return &Registry{hosts: hosts, logger: logger.OrNop(log)}
}

// Resolve implements Resolver
func (r *Registry) Resolve(ctx context.Context, url string) ([]string, error) {
	host := r.HostFor(url)
	urls, err := host.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}
	r.logger.DebugWithFields("resolved post url", map[string]interface{}{
		"host":  host.Name(),
		"url":   url,
		"count": len(urls),
	})
	return urls, nil
}

// HostFor returns the strategy that would handle url
func (r *Registry) HostFor(url string) Host {
	for _, h := range r.hosts {
		if h.Match(url) {
			return h
		}
	}
	return Passthrough{}
}

// Passthrough returns the URL as the only media URL
type Passthrough struct{}

func (Passthrough) Name() string          { return "passthrough" }
func (Passthrough) Match(url string) bool { return true }

func (Passthrough) Resolve(ctx context.Context, url string) ([]string, error) {
	return []string{url}, nil
}
