package reddit

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrNotMultireddit is returned when multireddit mode is requested for a
	// target without a /m/ segment.
	ErrNotMultireddit = errors.New("that doesn't look like a multireddit, are you sure you need the multireddit flag?")
	// ErrUnexpectedMultireddit is returned when a /m/ target is given without
	// multireddit mode.
	ErrUnexpectedMultireddit = errors.New("it looks like you are trying to fetch a multireddit, check the multireddit flag")
)

const multiredditMarker = "/m/"

// Sort is a parsed sort mode. Window is set only for advanced sorts such as
// "topweek".
type Sort struct {
	Name   string
	Window string
}

// IsZero reports whether no sort was requested
func (s Sort) IsZero() bool {
	return s.Name == ""
}

// Advanced reports whether the sort carries a time window
func (s Sort) Advanced() bool {
	return s.Window != ""
}

func (s Sort) String() string {
	return s.Name + s.Window
}

var windowedSorts = []string{"controversial", "top"}

// ParseSort splits a sort string. "top" and "controversial" are simple
// sorts; either one followed by a suffix ("topweek", "controversialall") is
// an advanced sort with that suffix as the time window. Anything else is
// passed through verbatim as the sort name.
func ParseSort(raw string) Sort {
	raw = strings.TrimSpace(raw)
	for _, base := range windowedSorts {
		if raw == base {
			return Sort{Name: base}
		}
		if strings.HasPrefix(raw, base) {
			return Sort{Name: base, Window: strings.TrimPrefix(raw, base)}
		}
	}
	return Sort{Name: raw}
}

// Request selects one feed page
type Request struct {
	// Target is a subreddit ("pics", "pics+aww") or, in multireddit mode, a
	// "<user>/m/<name>" path.
	Target      string
	Multireddit bool
	// Cursor is the id of the last post already seen; empty means newest.
	Cursor string
	Sort   Sort
}

// CheckTarget validates that the target shape agrees with the mode
func CheckTarget(target string, multireddit bool) error {
	hasMarker := strings.Contains(target, multiredditMarker)
	switch {
	case multireddit && !hasMarker:
		return ErrNotMultireddit
	case !multireddit && hasMarker:
		return ErrUnexpectedMultireddit
	}
	return nil
}

// FeedURL builds the listing URL for req relative to base, for example
// https://www.reddit.com/r/pics/top.json?after=t3_abc&sort=top&t=week
func FeedURL(base string, req Request) (string, error) {
	if err := CheckTarget(req.Target, req.Multireddit); err != nil {
		return "", err
	}

	base = strings.TrimRight(base, "/")
	var b strings.Builder
	b.WriteString(base)

	if req.Multireddit {
		b.WriteString("/user/")
		b.WriteString(req.Target)
	} else {
		b.WriteString("/r/")
		b.WriteString(req.Target)
		if !req.Sort.IsZero() {
			b.WriteString("/")
			b.WriteString(url.PathEscape(req.Sort.Name))
		}
	}
	b.WriteString(".json")

	hasQuery := false
	if req.Cursor != "" {
		b.WriteString("?after=t3_")
		b.WriteString(url.QueryEscape(req.Cursor))
		hasQuery = true
	}

	if req.Sort.Advanced() {
		if hasQuery {
			b.WriteString("&")
		} else {
			b.WriteString("?")
		}
		fmt.Fprintf(&b, "sort=%s&t=%s", url.QueryEscape(req.Sort.Name), url.QueryEscape(req.Sort.Window))
	}

	return b.String(), nil
}
