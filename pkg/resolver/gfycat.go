package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	errs "redditdl/pkg/errors"
)

// DefaultGfycatAPI is the gfycat metadata host
const DefaultGfycatAPI = "https://gfycat.com"

// size accepts both numeric and quoted sizes
type size int64

func (s *size) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size %s: %w", b, err)
	}
	*s = size(n)
	return nil
}

type gfyItem struct {
	GfyName  string `json:"gfyName"`
	Mp4URL   string `json:"mp4Url"`
	WebmURL  string `json:"webmUrl"`
	Mp4Size  size   `json:"mp4Size"`
	WebmSize size   `json:"webmSize"`
}

type gfyResponse struct {
	GfyItem *gfyItem `json:"gfyItem"`
	Error   string   `json:"error"`
}

type gfyCheck struct {
	URLKnown bool   `json:"urlKnown"`
	WebmURL  string `json:"webmUrl"`
	Mp4URL   string `json:"mp4Url"`
}

// Gfycat picks the smaller of the mp4 and webm encodings of a gfy
type Gfycat struct {
	fetcher Fetcher
	api     string
}

// NewGfycat creates the gfycat strategy talking to api
func NewGfycat(fetcher Fetcher, api string) *Gfycat {
	if api == "" {
		api = DefaultGfycatAPI
	}
	return &Gfycat{fetcher: fetcher, api: strings.TrimRight(api, "/")}
}

func (g *Gfycat) Name() string { return "gfycat" }

func (g *Gfycat) Match(url string) bool {
	return strings.Contains(url, "gfycat.com")
}

// Slug extracts the gfy name from a gfycat page or media URL
func Slug(rawURL string) string {
	rest := rawURL
	if i := strings.LastIndex(rest, "gfycat.com/"); i >= 0 {
		rest = rest[i+len("gfycat.com/"):]
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.Trim(rest, "/")
	base := path.Base(rest)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func (g *Gfycat) Resolve(ctx context.Context, rawURL string) ([]string, error) {
	slug := Slug(rawURL)
	if slug == "" {
		return nil, errs.New(errs.ErrorTypeInvalidURL, rawURL, "no gfycat name in url")
	}

	endpoint := fmt.Sprintf("%s/cajax/get/%s", g.api, url.PathEscape(slug))
	var resp gfyResponse
	if err := g.fetcher.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.GfyItem == nil {
		msg := resp.Error
		if msg == "" {
			msg = "no gfyItem in response"
		}
		return nil, errs.New(errs.ErrorTypeParsing, endpoint, msg)
	}

	if resp.GfyItem.Mp4Size < resp.GfyItem.WebmSize {
		return []string{resp.GfyItem.Mp4URL}, nil
	}
	return []string{resp.GfyItem.WebmURL}, nil
}

// Mirror asks gfycat whether it already hosts a conversion of a gif URL and
// returns the webm mirror when it does.
func (g *Gfycat) Mirror(ctx context.Context, gifURL string) (string, bool, error) {
	endpoint := fmt.Sprintf("%s/cajax/checkUrl/%s", g.api, url.QueryEscape(gifURL))
	var check gfyCheck
	if err := g.fetcher.GetJSON(ctx, endpoint, &check); err != nil {
		return "", false, err
	}
	if !check.URLKnown || check.WebmURL == "" {
		return "", false, nil
	}
	return check.WebmURL, true, nil
}

var _ json.Unmarshaler = (*size)(nil)
