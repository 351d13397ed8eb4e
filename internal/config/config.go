package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ligustah/tlcfetch/internal/catalog"
	"github.com/ligustah/tlcfetch/internal/progress"
)

// Config defines configuration for the tlcfetch CLI.
type Config struct {
	Dest       string        `yaml:"dest"`
	BaseURL    string        `yaml:"base_url"`
	Categories []string      `yaml:"categories"`
	Years      int           `yaml:"years"`
	From       string        `yaml:"from"`
	To         string        `yaml:"to"`
	Workers    int           `yaml:"workers"`
	Timeout    time.Duration `yaml:"timeout"`
	ChunkSize  int64         `yaml:"chunk_size"`
	MinSize    int64         `yaml:"min_size"`
	Progress   bool          `yaml:"progress"`
	Retry      RetryConfig   `yaml:"retry"`
	Log        LogConfig     `yaml:"log"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"`
}

// LogConfig defines logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Dest:      "nyc_tlc_data",
		BaseURL:   catalog.DefaultBaseURL,
		Years:     5,
		Workers:   4,
		Timeout:   5 * time.Minute,
		ChunkSize: 8 * 1024, // 8KiB
		MinSize:   1000,
		Retry: RetryConfig{
			Attempts: 3,
			Backoff:  time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	Dest       string          `yaml:"dest"`
	BaseURL    string          `yaml:"base_url"`
	Categories []string        `yaml:"categories"`
	Years      *int            `yaml:"years"`
	From       string          `yaml:"from"`
	To         string          `yaml:"to"`
	Workers    int             `yaml:"workers"`
	Timeout    string          `yaml:"timeout"`
	ChunkSize  string          `yaml:"chunk_size"`
	MinSize    string          `yaml:"min_size"`
	Progress   bool            `yaml:"progress"`
	Retry      yamlRetryConfig `yaml:"retry"`
	Log        LogConfig       `yaml:"log"`
}

type yamlRetryConfig struct {
	Attempts int    `yaml:"attempts"`
	Backoff  string `yaml:"backoff"`
}

// LoadFromFile loads configuration from a YAML file on top of Default.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Dest != "" {
		cfg.Dest = yc.Dest
	}
	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if len(yc.Categories) > 0 {
		cfg.Categories = yc.Categories
	}
	if yc.Years != nil {
		cfg.Years = *yc.Years
	}
	cfg.From = yc.From
	cfg.To = yc.To
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.ChunkSize != "" {
		size, err := progress.ParseBytes(yc.ChunkSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse chunk_size: %w", err)
		}
		cfg.ChunkSize = size
	}
	if yc.MinSize != "" {
		size, err := progress.ParseBytes(yc.MinSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse min_size: %w", err)
		}
		cfg.MinSize = size
	}
	cfg.Progress = yc.Progress
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Log.Level != "" {
		cfg.Log.Level = yc.Log.Level
	}
	if yc.Log.Format != "" {
		cfg.Log.Format = yc.Log.Format
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment. Variables already set are kept. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the TLCFETCH_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("TLCFETCH_DEST"); v != "" {
		c.Dest = v
	}
	if v := os.Getenv("TLCFETCH_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("TLCFETCH_CATEGORIES"); v != "" {
		c.Categories = SplitList(v)
	}
	if v := os.Getenv("TLCFETCH_YEARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse TLCFETCH_YEARS: %w", err)
		}
		c.Years = n
	}
	if v := os.Getenv("TLCFETCH_FROM"); v != "" {
		c.From = v
	}
	if v := os.Getenv("TLCFETCH_TO"); v != "" {
		c.To = v
	}
	if v := os.Getenv("TLCFETCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse TLCFETCH_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("TLCFETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TLCFETCH_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("TLCFETCH_CHUNK_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse TLCFETCH_CHUNK_SIZE: %w", err)
		}
		c.ChunkSize = size
	}
	if v := os.Getenv("TLCFETCH_MIN_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse TLCFETCH_MIN_SIZE: %w", err)
		}
		c.MinSize = size
	}
	if v := os.Getenv("TLCFETCH_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("TLCFETCH_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse TLCFETCH_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("TLCFETCH_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TLCFETCH_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("TLCFETCH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TLCFETCH_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Dest == "" {
		return errors.New("config: dest is required")
	}
	if c.BaseURL == "" {
		return errors.New("config: base_url is required")
	}
	if _, err := catalog.ParseCategories(c.Categories); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Years < 0 {
		return errors.New("config: years must not be negative")
	}
	if _, err := c.Months(time.Now()); err != nil {
		return err
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("config: retry.attempts must be positive")
	}
	if c.Retry.Backoff <= 0 {
		return errors.New("config: retry.backoff must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: chunk_size must be positive")
	}
	if c.MinSize < 0 {
		return errors.New("config: min_size must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// Months returns the months selected by the configuration. An explicit
// From/To range takes precedence over the Years lookback; a missing To
// means the month containing now.
func (c *Config) Months(now time.Time) ([]catalog.Month, error) {
	if c.From == "" && c.To == "" {
		return catalog.Lookback(now, c.Years), nil
	}
	if c.From == "" {
		return nil, errors.New("config: to requires from")
	}

	first, err := catalog.ParseMonth(c.From)
	if err != nil {
		return nil, fmt.Errorf("config: from: %w", err)
	}
	last := catalog.MonthOf(now)
	if c.To != "" {
		if last, err = catalog.ParseMonth(c.To); err != nil {
			return nil, fmt.Errorf("config: to: %w", err)
		}
	}
	if last.Before(first) {
		return nil, fmt.Errorf("config: from %s is after to %s", first, last)
	}
	return catalog.Between(first, last), nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Dest != "" {
		c.Dest = override.Dest
	}
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if len(override.Categories) > 0 {
		c.Categories = override.Categories
	}
	if override.Years != 0 {
		c.Years = override.Years
	}
	if override.From != "" {
		c.From = override.From
	}
	if override.To != "" {
		c.To = override.To
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.ChunkSize != 0 {
		c.ChunkSize = override.ChunkSize
	}
	if override.MinSize != 0 {
		c.MinSize = override.MinSize
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Log.Level != "" {
		c.Log.Level = override.Log.Level
	}
	if override.Log.Format != "" {
		c.Log.Format = override.Log.Format
	}
	return c
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
