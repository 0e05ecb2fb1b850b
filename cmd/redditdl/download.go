package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"redditdl/pkg/config"
	errs "redditdl/pkg/errors"
	"redditdl/pkg/logger"
	"redditdl/pkg/reddit"
	"redditdl/pkg/scraper"
	"redditdl/pkg/ui"
)

// downloadFlags holds the values of the download flags. The same variables
// back the flags registered on the root command for the shorthand form.
type downloadFlags struct {
	output         string
	multireddit    bool
	last           string
	score          int
	num            int
	update         bool
	sfw            bool
	nsfw           bool
	filenameFormat string
	titleContain   string
	regex          string
	verbose        bool
	skipAlbums     bool
	mirrorGfycat   bool
	sortType       string
	resume         bool
	forceRestart   bool
}

var dl downloadFlags

var downloadCmd = &cobra.Command{
	Use:   "download <subreddit> [dest_dir]",
	Short: "Download media linked from a subreddit or multireddit feed",
	Long: `Download the images and videos linked from a feed's posts into dest_dir
(default: the configured output directory, else the current directory).

The subreddit may combine several with "+" (pics+aww). With --multireddit
the target is a "<user>/m/<name>" path instead.

Feed pages are fetched at most once every 4 seconds. Files that already
exist are never fetched again; with --update the run stops at the first
one, which makes repeated runs cheap.`,
	Example: `  # Grab the newest images from r/pics into ./pics
  redditdl pics ./pics

  # Only posts scoring 100 or more from this week's top
  redditdl download wallpapers --score 100 --sort-type topweek

  # A multireddit, titles as filenames
  redditdl download someuser/m/art ./art --multireddit --filename-format title

  # Catch up with what was posted since the last run
  redditdl pics ./pics --update

  # Continue a run that stopped at the --num ceiling
  redditdl pics ./pics --resume`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	addDownloadFlags(downloadCmd)
}

func addDownloadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&dl.output, "output", "o", "", "output directory, same as the dest_dir argument")
	f.BoolVar(&dl.multireddit, "multireddit", false, "treat the target as a <user>/m/<name> multireddit")
	f.StringVar(&dl.last, "last", "", "start after the post with this id")
	f.IntVar(&dl.score, "score", 0, "minimum score a post needs")
	f.IntVar(&dl.num, "num", 1000, "stop after this many downloads, 0 for no limit")
	f.BoolVar(&dl.update, "update", false, "stop at the first file that already exists")
	f.BoolVar(&dl.sfw, "sfw", false, "only posts not marked nsfw")
	f.BoolVar(&dl.nsfw, "nsfw", false, "only posts marked nsfw")
	f.StringVar(&dl.filenameFormat, "filename-format", "", "file naming: reddit, id, title or url (default reddit)")
	f.StringVar(&dl.titleContain, "title-contain", "", "only posts whose title contains this text (case-insensitive)")
	f.StringVar(&dl.regex, "regex", "", "only posts whose title matches this regular expression from the start")
	f.BoolVarP(&dl.verbose, "verbose", "v", false, "print why posts were skipped and page progress")
	f.BoolVar(&dl.skipAlbums, "skip-albums", false, "skip imgur albums and galleries")
	f.BoolVar(&dl.skipAlbums, "skipAlbums", false, "")
	_ = f.MarkHidden("skipAlbums")
	f.BoolVar(&dl.mirrorGfycat, "mirror-gfycat", false, "download gifs through their gfycat mp4 mirror")
	f.StringVar(&dl.sortType, "sort-type", "", "feed sort: hot, new, rising, top, controversial, or top/controversial plus a window (topweek, controversialall)")
	f.BoolVar(&dl.resume, "resume", false, "resume from the last checkpoint of this feed")
	f.BoolVar(&dl.forceRestart, "force-restart", false, "ignore an existing checkpoint and start from the newest post")
}

// commandLineFlags collects the config-level flags the user actually set
func commandLineFlags(cmd *cobra.Command, args []string) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if len(args) > 1 {
		flags["output"] = args[1]
	} else if changed("output") {
		flags["output"] = dl.output
	}
	if changed("filename-format") {
		flags["filename-format"] = dl.filenameFormat
	}
	if changed("num") {
		flags["num"] = dl.num
	}
	if changed("mirror-gfycat") {
		flags["mirror-gfycat"] = dl.mirrorGfycat
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	} else if quiet {
		flags["log-level"] = "error"
	}
	if noColor {
		flags["no-color"] = true
	}
	return flags
}

func runDownload(cmd *cobra.Command, args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("expected <subreddit> [dest_dir], got %d arguments", len(args))
	}
	target := strings.TrimSpace(args[0])
	if target == "" {
		return fmt.Errorf("subreddit must not be empty")
	}

	cfg, err := config.Load(configFile, commandLineFlags(cmd, args))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	console := ui.NewStdout(cfg.Logging.NoColor, quiet)
	ui.SetDefault(console)

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.WithFields(map[string]interface{}{
		"run_id": uuid.NewString(),
		"target": target,
	})
	log.WithField("version", version).Info("redditdl starting")

	if err := reddit.CheckTarget(target, dl.multireddit); err != nil {
		return err
	}

	console.Println(scraper.Describe(target))

	opts := scraper.Options{
		Target:         target,
		Multireddit:    dl.multireddit,
		Sort:           dl.sortType,
		Last:           dl.last,
		DestDir:        cfg.Output.BaseDirectory,
		FileNameFormat: cfg.Output.FileNameFormat,
		MaxDownloads:   cfg.Download.MaxDownloads,
		Update:         dl.update,
		MirrorGfycat:   cfg.Hosts.MirrorGfycat,
		Verbose:        dl.verbose,
		Resume:         dl.resume,
		ForceRestart:   dl.forceRestart,
	}
	filterOpts := scraper.FilterOptions{
		Subreddit:     target,
		MinScore:      dl.score,
		SafeOnly:      dl.sfw,
		NSFWOnly:      dl.nsfw,
		TitleRegex:    dl.regex,
		SkipAlbums:    dl.skipAlbums,
		TitleContains: dl.titleContain,
	}

	s, err := scraper.NewFromConfig(cfg, opts, filterOpts, console, log)
	if err != nil {
		return fmt.Errorf("failed to initialize downloader: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := s.Run(ctx)
	if err != nil {
		if errs.IsType(err, errs.ErrorTypeInterrupted) || ctx.Err() != nil {
			console.Warning("Interrupted")
			console.Result(stats.Summary())
			console.Item("Run again with %s to continue.", console.Green("--resume"))
			return fmt.Errorf("interrupted")
		}
		log.WithError(err).Error("run failed")
		return err
	}

	console.Result(stats.Summary())
	if stats.Failed > 0 {
		console.Warning(fmt.Sprintf("%d URLs could not be downloaded", stats.Failed))
	}
	return nil
}
