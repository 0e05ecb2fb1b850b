package scraper

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"redditdl/pkg/config"
	"redditdl/pkg/reddit"
)

// maxFilenameLen is the exclusive upper bound on a title-based filename
const maxFilenameLen = 256

// defaultExt is used when a URL carries no usable extension
const defaultExt = ".jpg"

// maxExtLen bounds the extension taken from a URL, dot included
const maxExtLen = 16

var slugStrip = regexp.MustCompile(`[^\w\s-]`)

// Slugify reduces a post title to a filename-safe string: compatibility
// decomposition, non-ASCII dropped, everything but word characters,
// whitespace and hyphens removed, surrounding space trimmed.
func Slugify(title string) string {
	decomposed := norm.NFKD.String(title)
	ascii := make([]byte, 0, len(decomposed))
	for i := 0; i < len(decomposed); i++ {
		if decomposed[i] < utf8.RuneSelf {
			ascii = append(ascii, decomposed[i])
		}
	}
	return strings.TrimSpace(slugStrip.ReplaceAllString(string(ascii), ""))
}

// FileExt returns the extension of rawURL's path with any query dropped, or
// ".jpg" when there is none or it is longer than 16 bytes.
func FileExt(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if ext := path.Ext(p); ext != "" && len(ext) <= maxExtLen {
		return ext
	}
	return defaultExt
}

// Filename derives the destination name for the seq-th file of post. The
// "_<seq>" suffix is added only when the post resolved to several files.
func Filename(format string, post reddit.Post, mediaURL string, seq, total int) string {
	ext := FileExt(mediaURL)
	num := ""
	if total > 1 {
		num = fmt.Sprintf("_%d", seq)
	}

	switch format {
	case config.FormatURL:
		stem := urlStem(mediaURL)
		if stem == "" {
			stem = post.ID
		}
		return stem + ext
	case config.FormatTitle:
		suffix := num + ext
		slug := Slugify(post.Title)
		if slug == "" {
			slug = post.ID
		}
		if len(slug)+len(suffix) >= maxFilenameLen {
			slug = truncate(slug, maxFilenameLen-1-len(suffix))
		}
		return slug + suffix
	default:
		return post.ID + num + ext
	}
}

func urlStem(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "/" || base == "." {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Describe renders the banner printed before a run. Several subreddits
// joined with "+" are listed, one per line when the single-line form would
// be longer than 80 characters.
func Describe(target string) string {
	line := fmt.Sprintf(`Downloading images from "%s" subreddit`, target)
	if !strings.Contains(target, "+") {
		return line
	}
	names := strings.Split(target, "+")
	if len(line) > 80 {
		return "Downloading images from subreddits:\n" + strings.Join(names, "\n")
	}
	return fmt.Sprintf(`Downloading images from "%s" subreddit`, strings.Join(names, ", "))
}
