package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"redditdl/pkg/logger"
	"redditdl/pkg/ui"
)

var (
	// Version information, stamped by the linker
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "redditdl",
	Short: "Download images and videos linked from reddit posts",
	Long: `redditdl walks a subreddit or multireddit feed page by page and downloads
the media each post links to: direct images and videos, imgur pages and
albums, gfycat clips and deviantart pages.

Running "redditdl <subreddit> [dest_dir]" is shorthand for the download command.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetDefault(ui.NewStdout(noColor, quiet))
		logger.Version = version
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle through isKnownCommand
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !isKnownCommand(args[0]) {
			return runDownload(cmd, args)
		}
		return cmd.Help()
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.redditdl.yaml or $HOME/.config/redditdl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-post output, keep errors and the final summary")

	// Shorthand form: redditdl <subreddit> [dest_dir] [flags]
	addDownloadFlags(rootCmd)

	rootCmd.SetVersionTemplate(`redditdl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return arg == "help"
}
