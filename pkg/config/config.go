package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Filename formats accepted by Output.FileNameFormat
const (
	FormatReddit = "reddit"
	FormatID     = "id"
	FormatTitle  = "title"
	FormatURL    = "url"
)

// Config holds all configuration options for the downloader
type Config struct {
	// Feed endpoint settings
	Reddit RedditConfig `yaml:"reddit" json:"reddit"`

	// Media host endpoints
	Hosts HostsConfig `yaml:"hosts" json:"hosts"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RedditConfig holds feed-specific configuration
type RedditConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// HostsConfig holds the base URLs of the third-party media hosts
type HostsConfig struct {
	GfycatAPI    string `yaml:"gfycat_api" json:"gfycat_api"`
	MirrorGfycat bool   `yaml:"mirror_gfycat" json:"mirror_gfycat"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// PageInterval is the minimum time between the start of two feed fetches
	PageInterval time.Duration `yaml:"page_interval" json:"page_interval"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory  string `yaml:"base_directory" json:"base_directory"`
	FileNameFormat string `yaml:"file_name_format" json:"file_name_format"`
	WrongTypeLog   string `yaml:"wrong_type_log" json:"wrong_type_log"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	MaxDownloads    int           `yaml:"max_downloads" json:"max_downloads"`
	// DownloadTimeout bounds the wait for a media response's headers; the
	// body may take as long as it needs
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RetryAttempts   int           `yaml:"retry_attempts" json:"retry_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &Config{
		Reddit: RedditConfig{
			BaseURL:        "https://www.reddit.com",
			UserAgent:      "RedditImageGrab script.",
			RequestTimeout: 30 * time.Second,
		},
		Hosts: HostsConfig{
			GfycatAPI: "https://gfycat.com",
		},
		RateLimit: RateLimitConfig{
			PageInterval: 4 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory:  wd,
			FileNameFormat: FormatReddit,
		},
		Download: DownloadConfig{
			MaxDownloads:    1000,
			DownloadTimeout: 60 * time.Second,
			RetryAttempts:   4,
			RetryDelay:      0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("REDDITDL_BASE_URL"); baseURL != "" {
		c.Reddit.BaseURL = baseURL
	}
	if userAgent := os.Getenv("REDDITDL_USER_AGENT"); userAgent != "" {
		c.Reddit.UserAgent = userAgent
	}

	if interval := os.Getenv("REDDITDL_PAGE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid REDDITDL_PAGE_INTERVAL: %w", err)
		}
		c.RateLimit.PageInterval = d
	}

	if outputDir := os.Getenv("REDDITDL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if retries := os.Getenv("REDDITDL_RETRY_ATTEMPTS"); retries != "" {
		var val int
		fmt.Sscanf(retries, "%d", &val)
		if val > 0 {
			c.Download.RetryAttempts = val
		}
	}

	// Historical name for the wrong-type event log
	if logfile := os.Getenv("WRONGDATA_LOGFILE"); logfile != "" {
		c.Output.WrongTypeLog = logfile
	}

	if logLevel := os.Getenv("REDDITDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".redditdl.yaml",
		".redditdl.yml",
		filepath.Join(home, ".config", "redditdl", "config.yaml"),
		filepath.Join(home, ".config", "redditdl", "config.yml"),
		filepath.Join(home, ".redditdl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Reddit.BaseURL == "" {
		errs = append(errs, errors.New("reddit base URL is required"))
	}
	if c.Reddit.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.PageInterval < 0 {
		errs = append(errs, errors.New("page interval cannot be negative"))
	}

	if c.Download.MaxDownloads < 0 {
		errs = append(errs, errors.New("max downloads cannot be negative"))
	}
	if c.Download.RetryAttempts <= 0 {
		errs = append(errs, errors.New("retry attempts must be positive"))
	}
	if c.Download.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	switch c.Output.FileNameFormat {
	case FormatReddit, FormatID, FormatTitle, FormatURL:
	default:
		errs = append(errs, fmt.Errorf("invalid filename format %q (want reddit, id, title or url)", c.Output.FileNameFormat))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if format, ok := flags["filename-format"].(string); ok && format != "" {
		c.Output.FileNameFormat = strings.ToLower(format)
	}
	if num, ok := flags["num"].(int); ok {
		c.Download.MaxDownloads = num
	}
	if mirror, ok := flags["mirror-gfycat"].(bool); ok {
		c.Hosts.MirrorGfycat = mirror
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor, ok := flags["no-color"].(bool); ok {
		c.Logging.NoColor = noColor
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".redditdl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
