package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	errs "redditdl/pkg/errors"
	"redditdl/pkg/logger"
)

// DefaultUserAgent is sent when the caller does not configure one
const DefaultUserAgent = "RedditImageGrab script."

// Client performs GET requests with a fixed header set and maps failures onto
// redditdl/pkg/errors types.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a client with the given per-request timeout
func NewClient(timeout time.Duration, userAgent string, log logger.Logger) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: timeout}, userAgent, log)
}

// NewStreamingClient creates a client for large bodies. headerTimeout bounds
// the wait for response headers only; reading the body is bounded by the
// request context.
func NewStreamingClient(headerTimeout time.Duration, userAgent string, log logger.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return NewClientWithHTTP(&http.Client{Transport: transport}, userAgent, log)
}

// NewClientWithHTTP wraps an existing *http.Client, which is how tests inject
// a stub transport.
func NewClientWithHTTP(hc *http.Client, userAgent string, log logger.Logger) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: hc,
		headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "*/*",
		},
		logger: logger.OrNop(log),
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// ValidateURL rejects URLs that cannot be fetched at all, such as "http://".
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeInvalidURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errs.New(errs.ErrorTypeInvalidURL, raw, fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, errs.New(errs.ErrorTypeInvalidURL, raw, "missing host")
	}
	return u, nil
}

func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	target := req.URL.String()
	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    target,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, &errs.Error{
				Type:    errs.ErrorTypeInterrupted,
				Message: fmt.Sprintf("interrupted while fetching %s", target),
				URL:     target,
				Err:     ctxErr,
			}
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      target,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, target, err)
	}

	logger.LogRequest(c.logger, req.Method, target, resp.StatusCode, duration)
	return resp, nil
}

// Get fetches rawURL and returns the response for a 2xx status. Any other
// status closes the body and returns a typed error carrying the code. The
// caller must close the returned body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if _, err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeInvalidURL, rawURL, err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}

	if err := checkResponseStatus(resp, rawURL); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// GetBody fetches rawURL and returns its whole body along with the headers
func (c *Client) GetBody(ctx context.Context, rawURL string) ([]byte, http.Header, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, errs.Wrap(errs.ErrorTypeInterrupted, rawURL, ctxErr)
		}
		return nil, nil, errs.Wrap(errs.ErrorTypeNetwork, rawURL, fmt.Errorf("failed to read response body: %w", err))
	}
	return body, resp.Header, nil
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, rawURL string, target interface{}) error {
	body, _, err := c.GetBody(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		c.logger.WarnWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          rawURL,
			"error":        err.Error(),
			"body_preview": preview(body),
		})
		return errs.Wrap(errs.ErrorTypeParsing, rawURL, err)
	}
	return nil
}

func checkResponseStatus(resp *http.Response, rawURL string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return errs.FromStatus(resp.StatusCode, rawURL)
}

// MediaType returns the lower-cased media type of a Content-Type header
// value without parameters, or "" when absent or unparsable.
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	return strings.ToLower(mt)
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
