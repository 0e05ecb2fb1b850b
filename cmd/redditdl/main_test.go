package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"redditdl/pkg/config"
)

func parseDownloadFlags(t *testing.T, argv ...string) *cobra.Command {
	t.Helper()
	saved := dl
	t.Cleanup(func() { dl = saved })

	cmd := &cobra.Command{Use: "download"}
	addDownloadFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(argv))
	return cmd
}

func TestCommandLineFlagsOnlyChanged(t *testing.T) {
	cmd := parseDownloadFlags(t)
	flags := commandLineFlags(cmd, []string{"pics"})
	assert.Empty(t, flags)
}

func TestCommandLineFlagsCollectsSetValues(t *testing.T) {
	cmd := parseDownloadFlags(t, "--num", "0", "--filename-format", "title", "--mirror-gfycat", "-o", "out")
	flags := commandLineFlags(cmd, []string{"pics"})

	assert.Equal(t, 0, flags["num"])
	assert.Equal(t, "title", flags["filename-format"])
	assert.Equal(t, true, flags["mirror-gfycat"])
	assert.Equal(t, "out", flags["output"])
}

func TestCommandLineFlagsDestDirWins(t *testing.T) {
	cmd := parseDownloadFlags(t, "-o", "out")
	flags := commandLineFlags(cmd, []string{"pics", "dest"})
	assert.Equal(t, "dest", flags["output"])
}

func TestSkipAlbumsAlias(t *testing.T) {
	parseDownloadFlags(t, "--skipAlbums", "--sort-type", "topweek", "--score", "10")
	assert.True(t, dl.skipAlbums)
	assert.Equal(t, "topweek", dl.sortType)
	assert.Equal(t, 10, dl.score)
}

func TestQuietLowersLogLevel(t *testing.T) {
	savedQuiet, savedLevel := quiet, logLevel
	t.Cleanup(func() { quiet, logLevel = savedQuiet, savedLevel })

	quiet, logLevel = true, ""
	flags := commandLineFlags(parseDownloadFlags(t), []string{"pics"})
	assert.Equal(t, "error", flags["log-level"])

	logLevel = "debug"
	flags = commandLineFlags(parseDownloadFlags(t), []string{"pics"})
	assert.Equal(t, "debug", flags["log-level"])
}

func TestIsKnownCommand(t *testing.T) {
	assert.True(t, isKnownCommand("download"))
	assert.True(t, isKnownCommand("config"))
	assert.True(t, isKnownCommand("help"))
	assert.False(t, isKnownCommand("pics"))
	assert.False(t, isKnownCommand("someuser/m/art"))
}

func TestRunDownloadRejectsExtraArgs(t *testing.T) {
	err := runDownload(downloadCmd, []string{"pics", "a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 3 arguments")
}

func TestConfigInitWritesLoadableFile(t *testing.T) {
	saved := configFile
	t.Cleanup(func() { configFile = saved })

	configFile = filepath.Join(t.TempDir(), "nested", "redditdl.yaml")
	require.NoError(t, runConfigInit(configInitCmd, nil))

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(configFile))
	assert.Equal(t, 4*time.Second, cfg.RateLimit.PageInterval)
	assert.Equal(t, "RedditImageGrab script.", cfg.Reddit.UserAgent)
	assert.Equal(t, 1000, cfg.Download.MaxDownloads)
	require.NoError(t, cfg.Validate())

	err := runConfigInit(configInitCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCheckConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = t.TempDir()
	problems, warnings := checkConfig(cfg)
	assert.Empty(t, problems)
	assert.Empty(t, warnings)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	cfg.Output.BaseDirectory = filepath.Join(blocker, "out")
	cfg.Reddit.BaseURL = "reddit.com"
	cfg.RateLimit.PageInterval = time.Second
	cfg.Download.MaxDownloads = 0
	problems, warnings = checkConfig(cfg)
	assert.Len(t, problems, 2)
	assert.Len(t, warnings, 2)
}

func TestVersionCommand(t *testing.T) {
	var out strings.Builder
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "redditdl "+version)
	assert.Contains(t, out.String(), "OS/Arch: ")
}
