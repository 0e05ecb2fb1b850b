package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	errs "redditdl/pkg/errors"
	"redditdl/pkg/httpclient"
	"redditdl/pkg/logger"
	"redditdl/pkg/retry"
)

// removedPlaceholders are served by imgur instead of a 404 for deleted images
var removedPlaceholders = map[string]bool{
	"http://i.imgur.com/removed.png":  true,
	"https://i.imgur.com/removed.png": true,
}

// acceptedTypes lists the media types written to disk
var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"video/webm": true,
	"video/mp4":  true,
}

// MediaGetter issues the GET for a media URL
type MediaGetter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Storage is where accepted files end up
type Storage interface {
	Exists(name string) bool
	Save(r io.Reader, name string) (int64, error)
}

// Downloader fetches one URL into one destination file
type Downloader struct {
	client  MediaGetter
	storage Storage
	policy  *retry.Config
	logger  logger.Logger
}

// New creates a downloader. A nil policy means retry.DefaultConfig().
func New(client MediaGetter, storage Storage, policy *retry.Config, log logger.Logger) *Downloader {
	if policy == nil {
		policy = retry.DefaultConfig()
	}
	return &Downloader{
		client:  client,
		storage: storage,
		policy:  policy,
		logger:  logger.OrNop(log),
	}
}

// Download writes url to dest and returns the number of bytes written.
//
// It fails with an already_exists error before touching the network when
// dest is taken, with not_found when imgur answers with its removed
// placeholder and with unsupported_type when the media type is not an
// accepted image or video type. Transport failures are retried under the
// downloader's policy and the last one is returned.
func (d *Downloader) Download(ctx context.Context, url, dest string) (int64, error) {
	if d.storage.Exists(dest) {
		return 0, errs.New(errs.ErrorTypeAlreadyExists, url, fmt.Sprintf("URL [%s] already downloaded.", url))
	}

	resp, err := retry.DoWithResult(ctx, d.policy, func(ctx context.Context) (*http.Response, error) {
		return d.client.Get(ctx, url)
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	if removedPlaceholders[finalURL] {
		return 0, &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Code:    http.StatusNotFound,
			URL:     url,
			Message: fmt.Sprintf("HTTP ERROR: Code 404 for %s (imgur suggests the image was removed)", url),
		}
	}

	mediaType := ContentType(resp.Header.Get("Content-Type"), url)
	if !acceptedTypes[mediaType] {
		return 0, errs.New(errs.ErrorTypeUnsupportedType, url, fmt.Sprintf("WRONG FILE TYPE: %s has type: %s!", url, mediaType))
	}

	n, err := d.storage.Save(resp.Body, dest)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, errs.Wrap(errs.ErrorTypeInterrupted, url, ctxErr)
		}
		return n, errs.Wrap(errs.ErrorTypeNetwork, url, err)
	}

	d.logger.DebugWithFields("media saved", map[string]interface{}{
		"url":        url,
		"dest":       dest,
		"bytes":      n,
		"media_type": mediaType,
	})
	return n, nil
}

// ContentType returns the media type from a Content-Type header, or infers
// it from the URL suffix when the header is absent. Unknown suffixes yield
// "unknown".
func ContentType(header, url string) string {
	if mt := httpclient.MediaType(header); mt != "" {
		return mt
	}
	switch {
	case strings.HasSuffix(url, ".jpg"), strings.HasSuffix(url, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(url, ".png"):
		return "image/png"
	case strings.HasSuffix(url, ".gif"):
		return "image/gif"
	case strings.HasSuffix(url, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(url, ".webm"):
		return "video/webm"
	}
	return "unknown"
}
