package resolver

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	errs "redditdl/pkg/errors"
)

// deviationSelectors are tried in order; the first non-empty attribute wins
var deviationSelectors = []struct {
	selector string
	attr     string
}{
	{"a.dev-page-download", "href"},
	{"img.dev-content-full", "src"},
	{`meta[property="og:image"]`, "content"},
}

// DeviantArt resolves a deviation page to its full-size image
type DeviantArt struct {
	fetcher Fetcher
}

// NewDeviantArt creates the deviantart strategy
func NewDeviantArt(fetcher Fetcher) *DeviantArt {
	return &DeviantArt{fetcher: fetcher}
}

func (d *DeviantArt) Name() string { return "deviantart" }

func (d *DeviantArt) Match(url string) bool {
	return strings.Contains(url, "deviantart.com")
}

func (d *DeviantArt) Resolve(ctx context.Context, pageURL string) ([]string, error) {
	body, _, err := d.fetcher.GetBody(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, pageURL, fmt.Errorf("failed to parse deviation page: %w", err))
	}

	for _, s := range deviationSelectors {
		val, ok := doc.Find(s.selector).First().Attr(s.attr)
		if !ok || strings.TrimSpace(val) == "" {
			continue
		}
		return []string{absolute(pageURL, strings.TrimSpace(val))}, nil
	}

	return []string{pageURL}, nil
}

func absolute(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
