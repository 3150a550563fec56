package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds hunt report collection and normalization settings.
type Config struct {
	IndexURL        string
	Year            int
	RawDir          string
	OutputFile      string
	OutputFormat    string // csv, json, or dual
	ColumnOverrides string
	SourceURLs      []string
	ManifestIn      string
	ManifestOut     string
	IncludePDF      bool
	NoDownload      bool
	DiscoverOnly    bool
	Parallelism     int
	Delay           time.Duration
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	UserAgent       string
	MetricsAddr     string
	Verbose         bool
}

// DefaultConfig returns conservative defaults for the agency site.
func DefaultConfig() *Config {
	return &Config{
		IndexURL:        "https://www.wildlife.state.nm.us/hunting/maps-and-information/",
		Year:            0,
		RawDir:          "data/raw",
		OutputFile:      "output/hunt_reports.json",
		OutputFormat:    "json",
		Parallelism:     4,
		Delay:           500 * time.Millisecond,
		Timeout:         30 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    200 * time.Millisecond,
		RetryBackoffMax: 2 * time.Second,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:         false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.IndexURL == "" && len(c.SourceURLs) == 0 && c.ManifestIn == "" {
		return fmt.Errorf("index URL cannot be empty without source URLs or a manifest")
	}

	if c.IndexURL != "" {
		parsedURL, err := url.Parse(c.IndexURL)
		if err != nil {
			return fmt.Errorf("invalid index URL: %w", err)
		}
		if parsedURL.Host == "" {
			return fmt.Errorf("index URL must include a host")
		}
	}

	if c.Year != 0 && (c.Year < 2000 || c.Year > 2100) {
		return fmt.Errorf("year %d out of range", c.Year)
	}
	if c.RawDir == "" {
		return fmt.Errorf("raw directory cannot be empty")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if !c.DiscoverOnly && c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.DiscoverOnly && c.ManifestOut == "" {
		return fmt.Errorf("discover-only runs require a manifest output path")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

// EnvInt reads an integer environment variable. The boolean reports
// whether the variable was set.
func EnvInt(name string) (int, bool, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return value, true, nil
}

// EnvString reads a string environment variable. The boolean reports
// whether the variable was set to a non-empty value.
func EnvString(name string) (string, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
