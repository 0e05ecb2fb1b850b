package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"

	errs "redditdl/pkg/errors"
	"redditdl/pkg/httpclient"
	"redditdl/pkg/logger"
)

// DefaultBaseURL is the public feed host
const DefaultBaseURL = "https://www.reddit.com"

// ErrSubredditNotFound is returned when the feed answers with an empty body
var ErrSubredditNotFound = errors.New("subreddit does not exist")

// Client fetches feed pages. It never retries: any HTTP failure is meant to
// end the run.
type Client struct {
	http    *httpclient.Client
	baseURL string
	logger  logger.Logger
}

// NewClient creates a feed client
func NewClient(http *httpclient.Client, baseURL string, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    http,
		baseURL: baseURL,
		logger:  logger.OrNop(log),
	}
}

// FetchPage returns the posts of one feed page in feed order, with every url
// HTML-unescaped.
func (c *Client) FetchPage(ctx context.Context, req Request) ([]Post, error) {
	feedURL, err := FeedURL(c.baseURL, req)
	if err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetching feed page", map[string]interface{}{
		"target": req.Target,
		"cursor": req.Cursor,
		"sort":   req.Sort.String(),
		"url":    feedURL,
	})

	body, _, err := c.http.GetBody(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	posts, err := decodeListing(body)
	if err != nil {
		if errors.Is(err, ErrSubredditNotFound) {
			return nil, fmt.Errorf("subreddit %q does not exist: %w", req.Target, ErrSubredditNotFound)
		}
		return nil, errs.Wrap(errs.ErrorTypeParsing, feedURL, err)
	}

	c.logger.DebugWithFields("feed page decoded", map[string]interface{}{
		"target": req.Target,
		"posts":  len(posts),
	})
	return posts, nil
}

// decodeListing accepts either a single listing object or an array of
// listings. In the array form children with a missing or empty url are
// dropped, since the second listing of a comment-thread response holds
// comments.
func decodeListing(body []byte) ([]Post, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrSubredditNotFound
	}

	if trimmed[0] == '[' {
		var listings []listing
		if err := json.Unmarshal(trimmed, &listings); err != nil {
			return nil, fmt.Errorf("failed to decode listing array: %w", err)
		}
		var posts []Post
		for _, l := range listings {
			for _, ch := range l.Data.Children {
				var field urlField
				if err := json.Unmarshal(ch.Data, &field); err != nil || field.URL == nil || *field.URL == "" {
					continue
				}
				post, err := decodePost(ch.Data)
				if err != nil {
					return nil, err
				}
				posts = append(posts, post)
			}
		}
		return posts, nil
	}

	var l listing
	if err := json.Unmarshal(trimmed, &l); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	posts := make([]Post, 0, len(l.Data.Children))
	for _, ch := range l.Data.Children {
		post, err := decodePost(ch.Data)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func decodePost(raw json.RawMessage) (Post, error) {
	var p Post
	if err := json.Unmarshal(raw, &p); err != nil {
		return Post{}, fmt.Errorf("failed to decode post: %w", err)
	}
	p.URL = html.UnescapeString(p.URL)
	return p, nil
}
