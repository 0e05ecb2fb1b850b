package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"redditdl/pkg/reddit"
	"redditdl/pkg/resolver"
)

// Reason names the rule that rejected a post
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonComment  Reason = "comment"
	ReasonScore    Reason = "score"
	ReasonNSFW     Reason = "nsfw"
	ReasonNotNSFW  Reason = "not_nsfw"
	ReasonRegex    Reason = "regex"
	ReasonAlbum    Reason = "album"
	ReasonNoSubstr Reason = "title_contain"
)

var commentThread = regexp.MustCompile(`.*reddit\.com/r/(.*?)/comments`)

// FilterOptions configures a Filter
type FilterOptions struct {
	// Subreddit is the feed target, used to spot links back to its own
	// comment threads
	Subreddit     string
	MinScore      int
	SafeOnly      bool
	NSFWOnly      bool
	TitleRegex    string
	SkipAlbums    bool
	TitleContains string
}

// Filter decides which posts are downloaded. It is immutable once built.
type Filter struct {
	subreddit     string
	minScore      int
	safeOnly      bool
	nsfwOnly      bool
	regex         *regexp.Regexp
	skipAlbums    bool
	titleContains string
	titleRaw      string
}

// NewFilter compiles opts. Asking for both SafeOnly and NSFWOnly turns both
// off. The title regex is anchored at the start of the title.
func NewFilter(opts FilterOptions) (*Filter, error) {
	f := &Filter{
		subreddit:     opts.Subreddit,
		minScore:      opts.MinScore,
		safeOnly:      opts.SafeOnly,
		nsfwOnly:      opts.NSFWOnly,
		skipAlbums:    opts.SkipAlbums,
		titleContains: strings.ToLower(opts.TitleContains),
		titleRaw:      opts.TitleContains,
	}
	if f.safeOnly && f.nsfwOnly {
		f.safeOnly, f.nsfwOnly = false, false
	}
	if opts.TitleRegex != "" {
		re, err := regexp.Compile("^(?:" + opts.TitleRegex + ")")
		if err != nil {
			return nil, fmt.Errorf("invalid title regex: %w", err)
		}
		f.regex = re
	}
	return f, nil
}

// Check returns ReasonNone and true when post passes every rule. Otherwise
// it returns the first failing rule in this order: comment thread, score,
// safe-only, nsfw-only, regex, album, title substring.
func (f *Filter) Check(post reddit.Post) (Reason, bool) {
	switch {
	case f.isCommentThread(post.URL):
		return ReasonComment, false
	case post.Score < f.minScore:
		return ReasonScore, false
	case f.safeOnly && post.Over18:
		return ReasonNSFW, false
	case f.nsfwOnly && !post.Over18:
		return ReasonNotNSFW, false
	case f.regex != nil && !f.regex.MatchString(post.Title):
		return ReasonRegex, false
	case f.skipAlbums && resolver.IsAlbum(post.URL):
		return ReasonAlbum, false
	case f.titleContains != "" && !strings.Contains(strings.ToLower(post.Title), f.titleContains):
		return ReasonNoSubstr, false
	}
	return ReasonNone, true
}

func (f *Filter) isCommentThread(url string) bool {
	if f.subreddit != "" && strings.Contains(url, "reddit.com/r/"+f.subreddit+"/comments/") {
		return true
	}
	return commentThread.MatchString(url)
}

// describe renders the verbose skip message for reason
func (f *Filter) describe(reason Reason, post reddit.Post) string {
	switch reason {
	case ReasonComment:
		return fmt.Sprintf("Skip:[%s]", post.URL)
	case ReasonScore:
		return fmt.Sprintf("SCORE: %s has score of %d which is lower than required score of %d.", post.ID, post.Score, f.minScore)
	case ReasonNSFW:
		return fmt.Sprintf("NSFW: %s is marked as NSFW.", post.ID)
	case ReasonNotNSFW:
		return fmt.Sprintf("Not NSFW, skipping %s", post.ID)
	case ReasonRegex:
		return "Regex not matched"
	case ReasonAlbum:
		return fmt.Sprintf("Album found, skipping %s", post.ID)
	case ReasonNoSubstr:
		return fmt.Sprintf("Title does not contain %q, skipping %s", f.titleRaw, post.ID)
	}
	return ""
}
