package scraper

import (
	"context"

	"redditdl/pkg/checkpoint"
	"redditdl/pkg/metadata"
	"redditdl/pkg/reddit"
)

// FeedFetcher returns one page of posts
type FeedFetcher interface {
	FetchPage(ctx context.Context, req reddit.Request) ([]reddit.Post, error)
}

// URLResolver expands a post URL into direct media URLs
type URLResolver interface {
	Resolve(ctx context.Context, url string) ([]string, error)
}

// GifMirror looks up a video mirror for a gif URL
type GifMirror interface {
	Mirror(ctx context.Context, gifURL string) (string, bool, error)
}

// FileDownloader stores one media URL under a destination name
type FileDownloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// CheckpointStore persists the cursor of a run between invocations
type CheckpointStore interface {
	Exists() bool
	Load() (*checkpoint.Checkpoint, error)
	Create(target string, multireddit bool, sort string) (*checkpoint.Checkpoint, error)
	UpdateProgress(cp *checkpoint.Checkpoint, lastID string, page int, counts checkpoint.Counts) error
	Delete() error
}

// EventRecorder receives wrong-type events
type EventRecorder interface {
	Record(ev metadata.WrongType) error
}
