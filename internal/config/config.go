// Package config loads harness configuration from environment variables
// with an optional JSON file overlay.
package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every knob the harness needs. Loaded once at process start;
// treat values as read-only afterwards.
type Config struct {
	BaseURL         string
	BundleURL       string
	BundleCachePath string

	ChromeBinary     string
	ChromeExtraFlags string
	CdpURL           string
	Headless         bool

	MapLoadTimeout    time.Duration
	MarkerLoadTimeout time.Duration
	TableLoadTimeout  time.Duration
	ResponseTimeout   time.Duration
	NavigateTimeout   time.Duration

	PollInterval    time.Duration
	MaxPollAttempts int
	StableReadings  int
	MinMarkers      int

	StressRuns   int
	MaxAllowedMs int
	ReportPath   string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envBoolOr(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// FileConfig is the optional JSON overlay. Zero fields leave the
// env/default value in place.
type FileConfig struct {
	BaseURL         string `json:"baseUrl,omitempty"`
	BundleURL       string `json:"bundleUrl,omitempty"`
	BundleCachePath string `json:"bundleCachePath,omitempty"`
	ChromeBinary    string `json:"chromeBinary,omitempty"`
	CdpURL          string `json:"cdpUrl,omitempty"`
	Headless        *bool  `json:"headless,omitempty"`
	StressRuns      *int   `json:"stressRuns,omitempty"`
	MaxAllowedMs    *int   `json:"maxAllowedMs,omitempty"`
	ReportPath      string `json:"reportPath,omitempty"`
	MinMarkers      *int   `json:"minMarkers,omitempty"`
}

// Load builds the config from GOODMAP_* env vars, then applies the JSON
// file at GOODMAP_E2E_CONFIG if one exists.
func Load() *Config {
	base := envOr("GOODMAP_BASE_URL", "http://localhost:5000")
	cfg := &Config{
		BaseURL:         base,
		BundleURL:       envOr("GOODMAP_BUNDLE_URL", base+"/static/bundle.js"),
		BundleCachePath: envOr("GOODMAP_BUNDLE_CACHE", ".cache/goodmap-bundle.js"),

		ChromeBinary:     os.Getenv("CHROME_BINARY"),
		ChromeExtraFlags: os.Getenv("CHROME_FLAGS"),
		CdpURL:           os.Getenv("CDP_URL"),
		Headless:         envBoolOr("GOODMAP_HEADLESS", true),

		MapLoadTimeout:    time.Duration(envIntOr("GOODMAP_MAP_TIMEOUT_MS", 10000)) * time.Millisecond,
		MarkerLoadTimeout: time.Duration(envIntOr("GOODMAP_MARKER_TIMEOUT_MS", 5000)) * time.Millisecond,
		TableLoadTimeout:  time.Duration(envIntOr("GOODMAP_TABLE_TIMEOUT_MS", 5000)) * time.Millisecond,
		ResponseTimeout:   time.Duration(envIntOr("GOODMAP_RESPONSE_TIMEOUT_MS", 10000)) * time.Millisecond,
		NavigateTimeout:   time.Duration(envIntOr("GOODMAP_NAVIGATE_TIMEOUT_MS", 30000)) * time.Millisecond,

		PollInterval:    time.Duration(envIntOr("GOODMAP_POLL_INTERVAL_MS", 500)) * time.Millisecond,
		MaxPollAttempts: envIntOr("GOODMAP_MAX_POLL_ATTEMPTS", 120),
		StableReadings:  envIntOr("GOODMAP_STABLE_READINGS", 3),
		MinMarkers:      envIntOr("GOODMAP_MIN_MARKERS", 10),

		StressRuns:   envIntOr("GOODMAP_STRESS_RUNS", 5),
		MaxAllowedMs: envIntOr("GOODMAP_MAX_ALLOWED_MS", 25000),
		ReportPath:   envOr("GOODMAP_REPORT_PATH", "test-results/stress-test-perf.json"),
	}

	configPath := envOr("GOODMAP_E2E_CONFIG", "")
	if configPath == "" {
		return cfg
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("cannot read config file", "path", configPath, "err", err)
		}
		return cfg
	}
	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		slog.Warn("invalid config file, ignoring", "path", configPath, "err", err)
		return cfg
	}
	cfg.apply(&fc)
	return cfg
}

func (c *Config) apply(fc *FileConfig) {
	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if fc.BundleURL != "" {
		c.BundleURL = fc.BundleURL
	}
	if fc.BundleCachePath != "" {
		c.BundleCachePath = fc.BundleCachePath
	}
	if fc.ChromeBinary != "" {
		c.ChromeBinary = fc.ChromeBinary
	}
	if fc.CdpURL != "" {
		c.CdpURL = fc.CdpURL
	}
	if fc.Headless != nil {
		c.Headless = *fc.Headless
	}
	if fc.StressRuns != nil && *fc.StressRuns > 0 {
		c.StressRuns = *fc.StressRuns
	}
	if fc.MaxAllowedMs != nil && *fc.MaxAllowedMs > 0 {
		c.MaxAllowedMs = *fc.MaxAllowedMs
	}
	if fc.ReportPath != "" {
		c.ReportPath = fc.ReportPath
	}
	if fc.MinMarkers != nil && *fc.MinMarkers >= 0 {
		c.MinMarkers = *fc.MinMarkers
	}
}
