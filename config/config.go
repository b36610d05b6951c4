package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. Values come from environment
// variables with sane defaults; CLI flags layer on top of them.
type Config struct {
	// Models are the model names requested via MODELWATCH_MODELS
	// (comma-separated); flags and the watchlist file layer on top.
	Models []string

	Fetch   FetchConfig
	Browser BrowserConfig
	Log     LogConfig
	Paths   PathsConfig
}

// FetchConfig controls page fetching.
type FetchConfig struct {
	// Timeout bounds each individual fetch attempt.
	Timeout time.Duration // default: 10s

	// RatePerSecond paces sequential fetches (politeness).
	RatePerSecond float64 // default: 1.0

	// Stealth enables stealth JS injection on browser fetches.
	Stealth bool // default: true
}

// BrowserConfig controls the per-fetch Chromium instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// Bin overrides the Chromium binary path.
	Bin string

	// Proxy is an optional proxy URL for browser traffic.
	Proxy string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// PathsConfig holds file locations. Empty optional paths disable the
// corresponding feature.
type PathsConfig struct {
	// State is the JSON snapshot path; empty means the XDG default.
	State string

	// History is the optional SQLite run-log path.
	History string

	// SnapshotDir is the optional page-snapshot directory.
	SnapshotDir string

	// Bookmarks is the bookmarks HTML export path.
	Bookmarks string

	// Folder is the bookmarks folder holding the watched URLs.
	Folder string // default: "Leaderboards"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Models: envSliceOr("MODELWATCH_MODELS", nil),
		Fetch: FetchConfig{
			Timeout:       envDurationOr("MODELWATCH_TIMEOUT", 10*time.Second),
			RatePerSecond: envFloatOr("MODELWATCH_RATE", 1.0),
			Stealth:       envBoolOr("MODELWATCH_STEALTH", true),
		},
		Browser: BrowserConfig{
			Headless:  envBoolOr("MODELWATCH_HEADLESS", true),
			NoSandbox: envBoolOr("MODELWATCH_NO_SANDBOX", false),
			Bin:       os.Getenv("MODELWATCH_BROWSER_BIN"),
			Proxy:     os.Getenv("MODELWATCH_PROXY"),
		},
		Log: LogConfig{
			Level:  envOr("MODELWATCH_LOG_LEVEL", "info"),
			Format: envOr("MODELWATCH_LOG_FORMAT", "text"),
		},
		Paths: PathsConfig{
			State:       os.Getenv("MODELWATCH_STATE"),
			History:     os.Getenv("MODELWATCH_HISTORY"),
			SnapshotDir: os.Getenv("MODELWATCH_SNAPSHOT_DIR"),
			Bookmarks:   os.Getenv("MODELWATCH_BOOKMARKS"),
			Folder:      envOr("MODELWATCH_FOLDER", "Leaderboards"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
