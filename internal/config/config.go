// Package config exposes strongly typed application configuration structs loaded from YAML.
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

var (
	// ErrMissingKey reports a required key absent from the config file.
	ErrMissingKey = errors.New("missing required config key")
	// ErrInvalid reports a present but malformed setting.
	ErrInvalid = errors.New("invalid config")
)

var requiredKeys = []string{
	"symbols",
	"min_distance_pips",
	"min_retracement_percent",
	"analysis_window_seconds",
	"trading_hours.start_hour",
	"trading_hours.end_hour",
	"notifier.endpoint",
	"notifier.destination",
}

// App captures process-wide runtime settings such as name, environment, status address, and logging levels.
type App struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`
}

// TradingHours bounds when the engine evaluates instruments.
type TradingHours struct {
	StartHour     int    `yaml:"start_hour"`
	EndHour       int    `yaml:"end_hour"`
	Timezone      string `yaml:"timezone"`
	AllowWeekends bool   `yaml:"allow_weekends"`
}

// SupportResistance groups the level detector knobs.
type SupportResistance struct {
	MinTouches                int     `yaml:"min_touches"`
	MinDistanceBetweenTouches int     `yaml:"min_distance_between_touches"`
	TolerancePips             float64 `yaml:"tolerance_pips"`
	MinRegionSeparation       int     `yaml:"min_region_separation"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App                   App               `yaml:"app"`
	Symbols               []string          `yaml:"symbols"`
	PeriodSeconds         int               `yaml:"period_seconds"`
	MinDistancePips       float64           `yaml:"min_distance_pips"`
	MinRetracementPercent float64           `yaml:"min_retracement_percent"`
	AnalysisWindowSeconds int               `yaml:"analysis_window_seconds"`
	EntryWindowSeconds    int               `yaml:"entry_window_seconds"`
	PollIntervalMs        int               `yaml:"poll_interval_ms"`
	IdleWaitSeconds       int               `yaml:"idle_wait_seconds"`
	TradingHours          TradingHours      `yaml:"trading_hours"`
	SupportResistance     SupportResistance `yaml:"support_resistance"`
	Notifier              Notifier          `yaml:"notifier"`
	News                  News              `yaml:"news"`
	Feed                  Feed              `yaml:"feed"`
	Journal               Journal           `yaml:"journal"`
}

// Load reads a YAML file from disk, checks required keys, applies defaults and validates the result.
// An optional .env next to the file is loaded first so notifier fields may reference ${VARS}.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw YAML bytes the same way Load does.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if missing := missingKeys(raw); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(missing, ", "))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	cfg.Notifier.Endpoint = os.ExpandEnv(cfg.Notifier.Endpoint)
	cfg.Notifier.Destination = os.ExpandEnv(cfg.Notifier.Destination)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func missingKeys(raw map[string]any) []string {
	var missing []string
	for _, key := range requiredKeys {
		if !hasKey(raw, strings.Split(key, ".")) {
			missing = append(missing, key)
		}
	}
	return missing
}

func hasKey(node map[string]any, path []string) bool {
	val, ok := node[path[0]]
	if !ok || val == nil {
		return false
	}
	if len(path) == 1 {
		return true
	}
	child, ok := val.(map[string]any)
	if !ok {
		return false
	}
	return hasKey(child, path[1:])
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "levelbot"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":9090"
	}
	if c.PeriodSeconds == 0 {
		c.PeriodSeconds = 300
	}
	if c.EntryWindowSeconds == 0 {
		c.EntryWindowSeconds = 120
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = 1000
	}
	if c.IdleWaitSeconds == 0 {
		c.IdleWaitSeconds = 300
	}
	if c.TradingHours.Timezone == "" {
		c.TradingHours.Timezone = "Local"
	}
	sr := &c.SupportResistance
	if sr.MinTouches == 0 {
		sr.MinTouches = 2
	}
	if sr.MinDistanceBetweenTouches == 0 {
		sr.MinDistanceBetweenTouches = 5
	}
	if sr.TolerancePips == 0 {
		sr.TolerancePips = 2
	}
	if sr.MinRegionSeparation == 0 {
		sr.MinRegionSeparation = 10
	}
	c.Notifier.applyDefaults()
	c.News.applyDefaults()
	c.Feed.applyDefaults()
}

// Validate rejects malformed values; every failure wraps ErrInvalid.
func (c *Config) Validate() error {
	var problems []string
	symbols := 0
	for _, sym := range c.Symbols {
		if strings.TrimSpace(sym) != "" {
			symbols++
		}
	}
	if symbols == 0 {
		problems = append(problems, "symbols must not be empty")
	}
	if c.MinDistancePips < 0 {
		problems = append(problems, "min_distance_pips must be >= 0")
	}
	if c.MinRetracementPercent <= 0 || c.MinRetracementPercent > 10 {
		problems = append(problems, "min_retracement_percent must be in (0, 10]")
	}
	if c.AnalysisWindowSeconds <= 0 {
		problems = append(problems, "analysis_window_seconds must be positive")
	}
	if c.PeriodSeconds <= 0 || c.AnalysisWindowSeconds >= c.PeriodSeconds {
		problems = append(problems, "analysis_window_seconds must be shorter than period_seconds")
	}
	if c.EntryWindowSeconds < 0 || c.EntryWindowSeconds >= c.PeriodSeconds {
		problems = append(problems, "entry_window_seconds must be positive and shorter than period_seconds")
	}
	h := c.TradingHours
	if h.StartHour < 0 || h.StartHour > 23 || h.EndHour < 1 || h.EndHour > 24 || h.StartHour >= h.EndHour {
		problems = append(problems, fmt.Sprintf("trading_hours %d-%d out of range", h.StartHour, h.EndHour))
	}
	if _, err := time.LoadLocation(h.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("trading_hours.timezone %q: %v", h.Timezone, err))
	}
	sr := c.SupportResistance
	if sr.MinTouches < 1 || sr.MinDistanceBetweenTouches < 1 || sr.TolerancePips <= 0 || sr.MinRegionSeparation < 1 {
		problems = append(problems, "support_resistance values must be positive")
	}
	problems = append(problems, c.Notifier.validate()...)
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// CleanSymbols returns the configured instruments trimmed, deduplicated, in file order.
func (c *Config) CleanSymbols() []string {
	seen := make(map[string]struct{}, len(c.Symbols))
	out := make([]string, 0, len(c.Symbols))
	for _, sym := range c.Symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

// Period is the base candle duration.
func (c *Config) Period() time.Duration { return time.Duration(c.PeriodSeconds) * time.Second }

// AnalysisWindow is how long the per-instrument loop repeats after a period boundary.
func (c *Config) AnalysisWindow() time.Duration {
	return time.Duration(c.AnalysisWindowSeconds) * time.Second
}

// EntryWindow is how far into a period a signal may still be armed, independent of the
// analysis window.
func (c *Config) EntryWindow() time.Duration {
	return time.Duration(c.EntryWindowSeconds) * time.Second
}

// PollInterval is the pause between sweeps of the instrument list inside the analysis window.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// IdleWait is the sleep used outside trading hours.
func (c *Config) IdleWait() time.Duration { return time.Duration(c.IdleWaitSeconds) * time.Second }

// Location resolves the trading-hours timezone; Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TradingHours.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
