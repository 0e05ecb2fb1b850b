package resolver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"

	"redditdl/pkg/httpclient"
	"redditdl/pkg/retry"
)

// albumHashPattern scrapes image hashes out of the inline JSON of an album
// page. The page layout is undocumented and this is expected to break when
// imgur changes it.
var albumHashPattern = regexp.MustCompile(`"hash":"(.[^"]*)","title"`)

// Imgur resolves single images and albums on imgur.com
type Imgur struct {
	fetcher Fetcher
	policy  *retry.Config
}

// NewImgur creates the imgur strategy. Album pages are fetched under policy.
func NewImgur(fetcher Fetcher, policy *retry.Config) *Imgur {
	return &Imgur{fetcher: fetcher, policy: policy}
}

func (i *Imgur) Name() string { return "imgur" }

func (i *Imgur) Match(url string) bool {
	return strings.Contains(url, "imgur.com")
}

// IsAlbum reports whether url points at an album or gallery page
func IsAlbum(url string) bool {
	return strings.Contains(url, "imgur.com/a/") || strings.Contains(url, "imgur.com/gallery/")
}

func (i *Imgur) Resolve(ctx context.Context, url string) ([]string, error) {
	if IsAlbum(url) {
		return i.albumURLs(ctx, url)
	}
	return []string{NormalizeImgurImage(url)}, nil
}

// NormalizeImgurImage applies the single-image rewrites: a ".png" suffix
// becomes ".jpg", ".gifv" becomes ".gif" and a URL without extension gets
// ".jpg" appended. The png rewrite is lossy: imgur serves a jpeg for it and
// the rewritten URL is never checked.
func NormalizeImgurImage(url string) string {
	if strings.HasSuffix(url, ".png") {
		return strings.TrimSuffix(url, ".png") + ".jpg"
	}
	switch path.Ext(path.Base(url)) {
	case ".gifv":
		return strings.TrimSuffix(url, ".gifv") + ".gif"
	case "":
		return url + ".jpg"
	}
	return url
}

func (i *Imgur) albumURLs(ctx context.Context, albumURL string) ([]string, error) {
	type page struct {
		body   []byte
		header http.Header
	}
	p, err := retry.DoWithResult(ctx, i.policy, func(ctx context.Context) (page, error) {
		body, header, err := i.fetcher.GetBody(ctx, albumURL)
		return page{body, header}, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch album %s: %w", albumURL, err)
	}

	if ct := p.header.Get("Content-Type"); ct != "" && httpclient.MediaType(ct) != "text/html" {
		return nil, nil
	}

	var urls []string
	scanner := bufio.NewScanner(bytes.NewReader(p.body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		for _, m := range albumHashPattern.FindAllStringSubmatch(scanner.Text(), -1) {
			urls = append(urls, fmt.Sprintf("http://i.imgur.com/%s.jpg", m[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan album %s: %w", albumURL, err)
	}
	return urls, nil
}
