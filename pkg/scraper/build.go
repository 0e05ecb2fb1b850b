package scraper

import (
	"fmt"

	"redditdl/internal/downloader"
	"redditdl/pkg/checkpoint"
	"redditdl/pkg/config"
	"redditdl/pkg/httpclient"
	"redditdl/pkg/logger"
	"redditdl/pkg/metadata"
	"redditdl/pkg/ratelimit"
	"redditdl/pkg/reddit"
	"redditdl/pkg/resolver"
	"redditdl/pkg/retry"
	"redditdl/pkg/storage"
	"redditdl/pkg/ui"
)

// NewFromConfig wires a scraper against the live feed and media hosts
// described by cfg. opts.DestDir defaults to cfg.Output.BaseDirectory and
// opts.FileNameFormat to cfg.Output.FileNameFormat.
func NewFromConfig(cfg *config.Config, opts Options, filterOpts FilterOptions, console *ui.Console, log logger.Logger) (*Scraper, error) {
	log = logger.OrNop(log)

	if opts.DestDir == "" {
		opts.DestDir = cfg.Output.BaseDirectory
	}
	if opts.FileNameFormat == "" {
		opts.FileNameFormat = cfg.Output.FileNameFormat
	}
	if filterOpts.Subreddit == "" {
		filterOpts.Subreddit = opts.Target
	}

	filter, err := NewFilter(filterOpts)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewManager(opts.DestDir)
	if err != nil {
		return nil, err
	}

	api := httpclient.NewClient(cfg.Reddit.RequestTimeout, cfg.Reddit.UserAgent, log)
	media := httpclient.NewStreamingClient(cfg.Download.DownloadTimeout, cfg.Reddit.UserAgent, log)
	policy := retry.FromSettings(cfg.Download.RetryAttempts, cfg.Download.RetryDelay, log)

	gfycat := resolver.NewGfycat(api, cfg.Hosts.GfycatAPI)
	registry := resolver.NewRegistry(log,
		resolver.NewImgur(api, policy),
		gfycat,
		resolver.NewDeviantArt(api),
	)

	deps := Deps{
		Feed:       reddit.NewClient(api, cfg.Reddit.BaseURL, log),
		Resolver:   registry,
		Mirror:     gfycat,
		Downloader: downloader.New(media, store, policy, log),
		Limiter:    ratelimit.NewInterval(cfg.RateLimit.PageInterval),
		Console:    console,
		Logger:     log,
	}

	if cfg.Output.WrongTypeLog != "" {
		deps.Events = metadata.NewLog(cfg.Output.WrongTypeLog)
	}

	cps, err := checkpoint.NewManager(checkpointKey(opts), log)
	if err != nil {
		log.WithError(err).Warn("checkpoints disabled")
	} else {
		deps.Checkpoints = cps
	}

	return New(opts, filter, deps), nil
}

func checkpointKey(opts Options) string {
	key := opts.Target
	if opts.Sort != "" {
		key = fmt.Sprintf("%s-%s", key, opts.Sort)
	}
	return key
}
