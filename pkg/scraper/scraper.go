package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"redditdl/pkg/checkpoint"
	errs "redditdl/pkg/errors"
	"redditdl/pkg/httpclient"
	"redditdl/pkg/logger"
	"redditdl/pkg/metadata"
	"redditdl/pkg/ratelimit"
	"redditdl/pkg/reddit"
	"redditdl/pkg/ui"
)

// DefaultPageInterval is the minimum gap between the starts of two feed
// fetches
const DefaultPageInterval = 4 * time.Second

// StopReason says why a run ended without an error
type StopReason string

const (
	StopNone      StopReason = ""
	StopEndOfFeed StopReason = "end_of_feed"
	StopLimit     StopReason = "limit"
	StopUpdate    StopReason = "update"
)

// Stats are the counters of a run. Only the loop mutates them.
type Stats struct {
	Processed  int
	Downloaded int
	Skipped    int
	Exists     int
	Failed     int
	Pages      int
	Bytes      int64
	LastID     string
	Finished   bool
	StopReason StopReason
}

// Summary renders the closing line of a run
func (s *Stats) Summary() string {
	return fmt.Sprintf("Downloaded %d files (Processed %d, Skipped %d, Exists %d)",
		s.Downloaded, s.Processed, s.Skipped, s.Exists)
}

func (s *Stats) counts() checkpoint.Counts {
	return checkpoint.Counts{
		Processed:  s.Processed,
		Downloaded: s.Downloaded,
		Skipped:    s.Skipped,
		Exists:     s.Exists,
		Failed:     s.Failed,
	}
}

func (s *Stats) restore(c checkpoint.Counts) {
	s.Processed = c.Processed
	s.Downloaded = c.Downloaded
	s.Skipped = c.Skipped
	s.Exists = c.Exists
	s.Failed = c.Failed
}

// Options select the feed and the per-run policies
type Options struct {
	Target      string
	Multireddit bool
	Sort        string
	// Last is the id of the post to start after; empty means newest
	Last           string
	DestDir        string
	FileNameFormat string
	// MaxDownloads ends the run once this many files were written by this
	// invocation; 0 means unlimited
	MaxDownloads int
	// Update ends the run at the first file that already exists
	Update       bool
	MirrorGfycat bool
	Verbose      bool
	Resume       bool
	ForceRestart bool
}

// Deps are the collaborators of a Scraper. Mirror, Checkpoints and Events
// are optional.
type Deps struct {
	Feed        FeedFetcher
	Resolver    URLResolver
	Mirror      GifMirror
	Downloader  FileDownloader
	Limiter     ratelimit.Limiter
	Checkpoints CheckpointStore
	Events      EventRecorder
	Console     *ui.Console
	Logger      logger.Logger
}

// Scraper walks a feed page by page and downloads the media of every post
// that passes its filter
type Scraper struct {
	opts        Options
	sort        reddit.Sort
	filter      *Filter
	feed        FeedFetcher
	resolver    URLResolver
	mirror      GifMirror
	downloader  FileDownloader
	limiter     ratelimit.Limiter
	checkpoints CheckpointStore
	events      EventRecorder
	console     *ui.Console
	logger      logger.Logger
}

// New creates a scraper. A nil filter accepts every post that is not a
// comment thread.
func New(opts Options, filter *Filter, deps Deps) *Scraper {
	if filter == nil {
		filter, _ = NewFilter(FilterOptions{Subreddit: opts.Target})
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewInterval(DefaultPageInterval)
	}
	console := deps.Console
	if console == nil {
		console = ui.NewConsole(io.Discard, false, true)
	}
	log := logger.OrNop(deps.Logger).WithFields(map[string]interface{}{
		"target":      opts.Target,
		"multireddit": opts.Multireddit,
	})

	return &Scraper{
		opts:        opts,
		sort:        reddit.ParseSort(strings.ToLower(opts.Sort)),
		filter:      filter,
		feed:        deps.Feed,
		resolver:    deps.Resolver,
		mirror:      deps.Mirror,
		downloader:  deps.Downloader,
		limiter:     limiter,
		checkpoints: deps.Checkpoints,
		events:      deps.Events,
		console:     console,
		logger:      log,
	}
}

// run is the mutable state of one Run call
type run struct {
	cursor string
	stats  Stats
	// downloaded counts files written by this invocation only
	downloaded int
	finished   bool
	cp         *checkpoint.Checkpoint
	tracker    *ui.StatusTracker
}

func (r *run) stop(reason StopReason) {
	r.finished = true
	r.stats.Finished = true
	r.stats.StopReason = reason
}

// Run walks the feed until it is exhausted, the download ceiling is reached
// or, in update mode, an existing file is met. Feed errors and cancellation
// end the run with an error; the returned stats are valid either way.
func (s *Scraper) Run(ctx context.Context) (*Stats, error) {
	if err := reddit.CheckTarget(s.opts.Target, s.opts.Multireddit); err != nil {
		return &Stats{}, err
	}

	r, err := s.begin()
	if err != nil {
		return &Stats{}, err
	}

	s.logger.InfoWithFields("starting run", map[string]interface{}{
		"sort":   s.sort.String(),
		"cursor": r.cursor,
		"dest":   s.opts.DestDir,
		"num":    s.opts.MaxDownloads,
	})

	for !r.finished {
		if err := s.limiter.Wait(ctx); err != nil {
			return &r.stats, errs.Wrap(errs.ErrorTypeInterrupted, "", err)
		}

		r.tracker.NextPage()
		if s.opts.Verbose {
			r.tracker.PrintPageStatus(s.console, r.cursor)
		}

		posts, err := s.feed.FetchPage(ctx, reddit.Request{
			Target:      s.opts.Target,
			Multireddit: s.opts.Multireddit,
			Cursor:      r.cursor,
			Sort:        s.sort,
		})
		if err != nil {
			s.logger.WithError(err).WithField("cursor", r.cursor).Error("feed fetch failed")
			return &r.stats, err
		}

		if len(posts) == 0 {
			s.logger.Debug("feed exhausted")
			r.stop(StopEndOfFeed)
			break
		}
		r.stats.Pages++

		for _, post := range posts {
			if err := s.processPost(ctx, r, post); err != nil {
				s.saveCheckpoint(r)
				return &r.stats, err
			}
			if r.finished {
				break
			}
		}

		if !r.finished {
			r.cursor = posts[len(posts)-1].ID
			r.stats.LastID = r.cursor
		}
		s.saveCheckpoint(r)
	}

	s.finish(r)
	return &r.stats, nil
}

// begin builds the run state, restoring the cursor from a checkpoint when
// asked to resume
func (s *Scraper) begin() (*run, error) {
	r := &run{cursor: s.opts.Last, tracker: ui.NewStatusTracker()}
	r.stats.LastID = r.cursor
	if s.checkpoints == nil {
		return r, nil
	}

	switch {
	case s.opts.ForceRestart && s.checkpoints.Exists():
		if err := s.checkpoints.Delete(); err != nil {
			s.logger.WithError(err).Warn("failed to delete existing checkpoint")
		}
		s.console.Info("Force restart", "Ignoring existing checkpoint")
	case s.opts.Resume && s.checkpoints.Exists():
		cp, err := s.checkpoints.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil {
			r.cp = cp
			if cp.LastID != "" {
				r.cursor = cp.LastID
				r.stats.LastID = cp.LastID
			}
			r.stats.restore(cp.Counts)
			r.stats.Pages = cp.LastProcessedPage
			s.console.Info("Resuming from checkpoint", fmt.Sprintf("after %s, %d downloaded so far", cp.LastID, cp.Counts.Downloaded))
			s.logger.InfoWithFields("resuming from checkpoint", map[string]interface{}{
				"last_id":    cp.LastID,
				"page":       cp.LastProcessedPage,
				"downloaded": cp.Counts.Downloaded,
			})
		}
	case s.checkpoints.Exists():
		s.console.Warning("A previous run of this feed was interrupted")
		s.console.Item("Use %s to continue where it left off, or %s to silence this notice.",
			s.console.Green("--resume"), s.console.Yellow("--force-restart"))
	}

	if r.cp == nil {
		cp, err := s.checkpoints.Create(s.opts.Target, s.opts.Multireddit, s.sort.String())
		if err != nil {
			s.logger.WithError(err).Warn("failed to create checkpoint, continuing without one")
		}
		r.cp = cp
	}
	return r, nil
}

func (s *Scraper) saveCheckpoint(r *run) {
	if s.checkpoints == nil || r.cp == nil {
		return
	}
	if err := s.checkpoints.UpdateProgress(r.cp, r.cursor, r.stats.Pages, r.stats.counts()); err != nil {
		s.logger.WithError(err).Warn("failed to update checkpoint")
	}
}

// finish drops the checkpoint once the feed is caught up; a run stopped by
// the download ceiling keeps it for --resume
func (s *Scraper) finish(r *run) {
	fields := map[string]interface{}{
		"stop_reason": string(r.stats.StopReason),
		"pages":       r.stats.Pages,
		"processed":   r.stats.Processed,
		"downloaded":  r.stats.Downloaded,
		"skipped":     r.stats.Skipped,
		"exists":      r.stats.Exists,
		"failed":      r.stats.Failed,
		"bytes":       r.stats.Bytes,
		"duration":    r.tracker.GetElapsedTime().String(),
	}
	s.logger.InfoWithFields("run complete", fields)

	if s.opts.Verbose {
		r.tracker.PrintRate(s.console, r.downloaded)
	}

	if s.checkpoints == nil || r.stats.StopReason == StopLimit {
		return
	}
	if err := s.checkpoints.Delete(); err != nil {
		s.logger.WithError(err).Warn("failed to delete checkpoint")
	}
}

func (s *Scraper) processPost(ctx context.Context, r *run, post reddit.Post) error {
	r.stats.Processed++

	if reason, ok := s.filter.Check(post); !ok {
		r.stats.Skipped++
		if reason == ReasonComment || s.opts.Verbose {
			s.console.Item("%s", s.filter.describe(reason, post))
		}
		s.logger.DebugWithFields("post skipped", map[string]interface{}{
			"post_id": post.ID,
			"reason":  string(reason),
		})
		return nil
	}

	urls, err := s.resolver.Resolve(ctx, post.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errs.Wrap(errs.ErrorTypeInterrupted, post.URL, ctxErr)
		}
		r.stats.Failed++
		s.console.ItemError("Failed to extract urls for %s: %v", post.URL, err)
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"post_id": post.ID,
			"url":     post.URL,
		}).Warn("failed to resolve post url")
		return nil
	}

	seq := 0
	for _, mediaURL := range urls {
		if err := s.processURL(ctx, r, post, mediaURL, &seq, len(urls)); err != nil {
			return err
		}
		if !r.finished && s.opts.MaxDownloads > 0 && r.downloaded >= s.opts.MaxDownloads {
			r.stop(StopLimit)
		}
		if r.finished {
			return nil
		}
	}
	return nil
}

// processURL downloads one resolved URL. seq counts the files of post
// written so far and names the next one.
func (s *Scraper) processURL(ctx context.Context, r *run, post reddit.Post, mediaURL string, seq *int, total int) error {
	if s.opts.MirrorGfycat && s.mirror != nil && strings.HasSuffix(mediaURL, "gif") {
		mirrored, ok, err := s.mirror.Mirror(ctx, mediaURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return errs.Wrap(errs.ErrorTypeInterrupted, mediaURL, ctxErr)
			}
			r.stats.Failed++
			s.console.ItemError("Problem with %s: %v", mediaURL, err)
			s.logger.WithError(err).WithField("url", mediaURL).Warn("gfycat mirror lookup failed")
			return nil
		}
		if ok {
			mediaURL = mirrored
		}
	}

	name := Filename(s.opts.FileNameFormat, post, mediaURL, *seq, total)

	if _, err := httpclient.ValidateURL(mediaURL); err != nil {
		r.stats.Failed++
		s.console.ItemError("Invalid URL: %s!", mediaURL)
		s.logger.WithError(err).WithField("post_id", post.ID).Warn("invalid media url")
		return nil
	}

	s.console.Item("Attempting to download URL [%s] as [%s].", mediaURL, name)
	n, err := s.downloader.Download(ctx, mediaURL, name)
	if err != nil {
		return s.handleFailure(ctx, r, post, mediaURL, name, *seq, err)
	}

	r.stats.Downloaded++
	r.stats.Bytes += n
	r.downloaded++
	*seq++
	s.console.ItemSuccess("Successfully downloaded URL [%s] as [%s].", mediaURL, name)
	s.logger.DebugWithFields("file downloaded", map[string]interface{}{
		"post_id": post.ID,
		"url":     mediaURL,
		"file":    name,
		"bytes":   n,
	})
	return nil
}

// handleFailure classifies a download error into the run counters. Only
// cancellation is returned to the caller.
func (s *Scraper) handleFailure(ctx context.Context, r *run, post reddit.Post, mediaURL, name string, seq int, err error) error {
	switch errs.TypeOf(err) {
	case errs.ErrorTypeAlreadyExists:
		r.stats.Exists++
		s.console.ItemWarning("%s", message(err))
		if s.opts.Update {
			s.console.Item("Update complete, exiting.")
			r.stop(StopUpdate)
		}
		return nil

	case errs.ErrorTypeUnsupportedType:
		r.stats.Skipped++
		s.console.ItemWarning("%s", message(err))
		if s.events != nil {
			ev := metadata.WrongType{
				URL:        mediaURL,
				TargetDir:  s.opts.DestDir,
				FileCount:  seq,
				Downloaded: r.stats.Downloaded,
				Filename:   name,
				PostID:     post.ID,
			}
			if recErr := s.events.Record(ev); recErr != nil {
				s.logger.WithError(recErr).Warn("failed to record wrong-type event")
			}
		}
		return nil

	case errs.ErrorTypeInterrupted:
		return err
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return errs.Wrap(errs.ErrorTypeInterrupted, mediaURL, ctxErr)
	}

	r.stats.Failed++
	s.console.ItemError("%s", describeFailure(err, mediaURL))
	s.logger.WithError(err).WithFields(map[string]interface{}{
		"post_id":    post.ID,
		"url":        mediaURL,
		"error_type": string(errs.TypeOf(err)),
	}).Warn("download failed")
	return nil
}

func message(err error) string {
	var e *errs.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

func describeFailure(err error, mediaURL string) string {
	var e *errs.Error
	if errors.As(err, &e) {
		switch {
		case e.Code != 0:
			return fmt.Sprintf("HTTP ERROR: Code %d for %s.", e.Code, mediaURL)
		case e.Type == errs.ErrorTypeInvalidURL:
			return fmt.Sprintf("Invalid URL: %s!", mediaURL)
		case e.Type == errs.ErrorTypeNetwork:
			return fmt.Sprintf("URL ERROR: %s! (%s)", mediaURL, e.Message)
		}
	}
	return fmt.Sprintf("Problem with %s: %v", mediaURL, err)
}
