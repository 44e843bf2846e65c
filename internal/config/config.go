// Package config contains everything related to configuration
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	APIURL         string
	EnvPath        string
	DatabasePath   string
	ExportDir      string
	LogLevel       string
	LogPath        string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	AlertThreshold int
	DesktopNotify  bool
}

// Settings are the values that may change while the dashboard runs.
type Settings struct {
	PollInterval   time.Duration
	AlertThreshold int
	DesktopNotify  bool
}

// Default values
const (
	defaultAPIURL         = "http://localhost:8001/api"
	defaultPollInterval   = 30 * time.Second
	defaultRequestTimeout = 15 * time.Second
	defaultAlertThreshold = 5
	defaultLogLevel       = "info"

	minPollInterval   = time.Second
	maxPollInterval   = time.Hour
	maxAlertThreshold = 10000
)

// lookupFunc resolves a configuration key to its raw value, "" when unset.
type lookupFunc func(key string) string

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	var envPath string
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			envPath = path
			break
		}
	}

	cfg := fromLookup(os.Getenv)
	cfg.EnvPath = envPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}
	if cfg.LogPath != "" {
		if err := ensureDir(filepath.Dir(cfg.LogPath)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func fromLookup(get lookupFunc) *Config {
	cfg := &Config{
		APIURL:         strings.TrimRight(getString(get, "CRAWLER_API_URL", defaultAPIURL), "/"),
		DatabasePath:   getString(get, "DATABASE_PATH", getDefaultDatabasePath()),
		ExportDir:      getString(get, "EXPORT_DIR", getDefaultExportDir()),
		LogLevel:       strings.ToLower(getString(get, "LOG_LEVEL", defaultLogLevel)),
		LogPath:        getString(get, "LOG_PATH", getDefaultLogPath()),
		RequestTimeout: getDuration(get, "REQUEST_TIMEOUT", defaultRequestTimeout),
	}
	cfg.apply(settingsFrom(get, Settings{
		PollInterval:   defaultPollInterval,
		AlertThreshold: defaultAlertThreshold,
		DesktopNotify:  true,
	}))
	return cfg
}

// settingsFrom overlays the reloadable keys found by get on top of base.
func settingsFrom(get lookupFunc, base Settings) Settings {
	return Settings{
		PollInterval:   getDuration(get, "POLL_INTERVAL", base.PollInterval),
		AlertThreshold: getInt(get, "ALERT_THRESHOLD", base.AlertThreshold),
		DesktopNotify:  getBool(get, "DESKTOP_NOTIFY", base.DesktopNotify),
	}
}

// Settings returns the reloadable part of the configuration.
func (c *Config) Settings() Settings {
	return Settings{
		PollInterval:   c.PollInterval,
		AlertThreshold: c.AlertThreshold,
		DesktopNotify:  c.DesktopNotify,
	}
}

func (c *Config) apply(s Settings) {
	c.PollInterval = s.PollInterval
	c.AlertThreshold = s.AlertThreshold
	c.DesktopNotify = s.DesktopNotify
}

// Validate checks the service URL and numeric ranges.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIURL)
	switch {
	case c.APIURL == "":
		errs = append(errs, errors.New("CRAWLER_API_URL is required"))
	case err != nil:
		errs = append(errs, fmt.Errorf("CRAWLER_API_URL is invalid: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("CRAWLER_API_URL must use http or https, got %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, errors.New("CRAWLER_API_URL must include a host"))
	}

	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout))
	}
	if err := c.Settings().Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

// Validate checks the ranges of the reloadable settings.
func (s Settings) Validate() error {
	var errs []error
	if s.PollInterval < minPollInterval || s.PollInterval > maxPollInterval {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be between %v and %v, got %v",
			minPollInterval, maxPollInterval, s.PollInterval))
	}
	if s.AlertThreshold < 1 || s.AlertThreshold > maxAlertThreshold {
		errs = append(errs, fmt.Errorf("ALERT_THRESHOLD must be between 1 and %d, got %d",
			maxAlertThreshold, s.AlertThreshold))
	}
	return errors.Join(errs...)
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "crawler-dashboard", ".env"),
			filepath.Join(home, ".crawler-dashboard", ".env"),
		)
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".config", "crawler-dashboard", "history.db")
}

// getDefaultLogPath returns the default log file; the TUI owns stdout.
func getDefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "crawler-dashboard.log"
	}
	return filepath.Join(home, ".config", "crawler-dashboard", "dashboard.log")
}

// getDefaultExportDir prefers ~/Downloads and falls back to the working directory.
func getDefaultExportDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		dl := filepath.Join(home, "Downloads")
		if info, err := os.Stat(dl); err == nil && info.IsDir() {
			return dl
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// getString retrieves a string value or returns the default.
func getString(get lookupFunc, key, defaultValue string) string {
	if value := strings.TrimSpace(get(key)); value != "" {
		return value
	}
	return defaultValue
}

// getDuration retrieves a duration value or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getDuration(get lookupFunc, key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(get(key)); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getInt(get lookupFunc, key string, defaultValue int) int {
	if value := strings.TrimSpace(get(key)); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBool(get lookupFunc, key string, defaultValue bool) bool {
	if value := strings.TrimSpace(get(key)); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
