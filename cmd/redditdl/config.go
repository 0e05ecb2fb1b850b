package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"redditdl/pkg/config"
	"redditdl/pkg/ui"
)

const defaultConfigPath = ".redditdl.yaml"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage redditdl configuration files.

Configuration is resolved in this order, highest priority first:
  - Command line flags
  - Environment variables (REDDITDL_*, WRONGDATA_LOGFILE)
  - .env files (./.env, ~/.redditdl.env)
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with every available option.

The file is written to ./.redditdl.yaml unless --config names another path.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and check it.

This command checks:
  - YAML syntax
  - Value types and ranges
  - That the output, log and wrong-type log locations can be created`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# redditdl configuration file
#
# Every option can also be set through the environment, for example
# REDDITDL_OUTPUT_DIR or REDDITDL_PAGE_INTERVAL.

reddit:
  base_url: "https://www.reddit.com"
  # Sent with every request
  user_agent: "RedditImageGrab script."
  request_timeout: 30s

hosts:
  gfycat_api: "https://gfycat.com"
  # Fetch .gif links through their gfycat mp4 mirror
  mirror_gfycat: false

rate_limit:
  # Minimum time between two feed page fetches
  page_interval: 4s

output:
  # Where files go when no dest_dir argument is given
  base_directory: "."
  # reddit, id, title or url
  file_name_format: "reddit"
  # JSON lines log of links that served an unsupported content type.
  # Empty disables it.
  wrong_type_log: ""

download:
  # Stop after this many downloads in one run, 0 for no limit
  max_downloads: 1000
  # Wait this long for a media server to answer; the transfer itself is
  # not limited
  download_timeout: 60s
  # Total attempts per media request
  retry_attempts: 4
  retry_delay: 0s

logging:
  # debug, info, warn, error, disabled
  level: "info"
  # Optional JSON log file, in addition to stderr
  file: ""
  no_color: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	c := ui.Default()
	ui.PrintSuccess("Configuration file created: " + configPath)
	c.Println("")
	c.Println("Next steps:")
	c.Item("1. Edit the file to taste")
	c.Item("2. Run 'redditdl config validate' to check it")
	c.Item("3. Start downloading with 'redditdl <subreddit> [dest_dir]'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	c := ui.Default()
	ui.PrintHighlight("Current Configuration")
	c.Result(strings.TrimRight(string(data), "\n"))

	c.Println("Configuration sources (in order of priority):")
	c.Item("1. Command line flags")
	c.Item("2. Environment variables (REDDITDL_*)")
	if configFile != "" {
		c.Item("3. Configuration file: %s", configFile)
	} else {
		c.Item("3. Configuration file: (searched in default locations)")
	}
	c.Item("4. Default values")
	return nil
}

// checkConfig returns problems config.Validate does not cover: locations
// that cannot be created and values that are legal but unwise
func checkConfig(cfg *config.Config) (problems, warnings []string) {
	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	for label, file := range map[string]string{
		"log":            cfg.Logging.File,
		"wrong-type log": cfg.Output.WrongTypeLog,
	} {
		if file == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create %s directory: %v", label, err))
		}
	}

	for label, raw := range map[string]string{
		"reddit base_url":  cfg.Reddit.BaseURL,
		"hosts gfycat_api": cfg.Hosts.GfycatAPI,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("%s is not an absolute URL: %q", label, raw))
		}
	}

	if cfg.RateLimit.PageInterval < config.DefaultConfig().RateLimit.PageInterval {
		warnings = append(warnings, fmt.Sprintf("page_interval %s is below the 4s reddit expects from scripts", cfg.RateLimit.PageInterval))
	}
	if cfg.Download.MaxDownloads == 0 {
		warnings = append(warnings, "max_downloads is 0, runs only stop at the end of the feed")
	}
	return problems, warnings
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	c := ui.Default()
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	problems, warnings := checkConfig(cfg)
	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			c.Item("- %s", p)
		}
		return fmt.Errorf("%d configuration errors", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			c.Item("- %s", w)
		}
	}

	ui.PrintSuccess("Configuration is valid")
	c.Println("")
	c.Println("Configuration summary:")
	c.Item("Output directory: %s", cfg.Output.BaseDirectory)
	c.Item("Filename format: %s", cfg.Output.FileNameFormat)
	c.Item("Page interval: %s", cfg.RateLimit.PageInterval)
	c.Item("Max downloads: %d", cfg.Download.MaxDownloads)
	c.Item("Retry attempts: %d", cfg.Download.RetryAttempts)
	c.Item("Log level: %s", cfg.Logging.Level)
	return nil
}
