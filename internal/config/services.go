// Package config also contains the surfaces of external collaborators: notifier, news calendar, feed and journal.
package config

import (
	"strings"
	"time"
)

// Notifier configures where signal and outcome messages are delivered.
type Notifier struct {
	Provider    string `yaml:"provider"`    // telegram|discord|log
	Endpoint    string `yaml:"endpoint"`    // e.g. https://api.telegram.org/bot${TELEGRAM_BOT_TOKEN}
	Destination string `yaml:"destination"` // chat id for telegram, ignored by discord
	QueueSize   int    `yaml:"queue_size"`
}

func (n *Notifier) applyDefaults() {
	n.Provider = strings.ToLower(strings.TrimSpace(n.Provider))
	if n.Provider == "" {
		n.Provider = "telegram"
	}
	if n.QueueSize <= 0 {
		n.QueueSize = 64
	}
}

func (n *Notifier) validate() []string {
	var problems []string
	switch n.Provider {
	case "telegram":
		if strings.TrimSpace(n.Endpoint) == "" || strings.TrimSpace(n.Destination) == "" {
			problems = append(problems, "notifier.endpoint and notifier.destination must be set for telegram")
		}
	case "discord":
		if strings.TrimSpace(n.Endpoint) == "" {
			problems = append(problems, "notifier.endpoint must be set for discord")
		}
	case "log":
	default:
		problems = append(problems, "notifier.provider must be telegram, discord or log")
	}
	return problems
}

// News configures the economic-calendar gate.
type News struct {
	Enabled        bool     `yaml:"enabled"`
	URL            string   `yaml:"url"`
	RefreshMinutes int      `yaml:"refresh_minutes"`
	WindowMinutes  int      `yaml:"window_minutes"`
	Currencies     []string `yaml:"currencies"`
	MinImpact      string   `yaml:"min_impact"` // Low|Medium|High
}

const defaultNewsURL = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"

func (n *News) applyDefaults() {
	if n.URL == "" {
		n.URL = defaultNewsURL
	}
	if n.RefreshMinutes <= 0 {
		n.RefreshMinutes = 60
	}
	if n.WindowMinutes <= 0 {
		n.WindowMinutes = 15
	}
	if len(n.Currencies) == 0 {
		n.Currencies = []string{"USD", "EUR"}
	}
	if n.MinImpact == "" {
		n.MinImpact = "High"
	}
}

// RefreshInterval is how often the calendar is re-fetched.
func (n News) RefreshInterval() time.Duration { return time.Duration(n.RefreshMinutes) * time.Minute }

// Window is the half-width of the blocking window around an event.
func (n News) Window() time.Duration { return time.Duration(n.WindowMinutes) * time.Minute }

// Feed selects and configures the market data provider.
type Feed struct {
	Provider    string `yaml:"provider"` // stub|binance
	RESTBaseURL string `yaml:"rest_base_url"`
	StreamURL   string `yaml:"stream_url"`
	Stream      bool   `yaml:"stream"`
	// VenueSymbols maps instruments the venue lists under another ticker, e.g. GBPJPY: GBPJPYC.
	VenueSymbols map[string]string `yaml:"venue_symbols"`
}

func (f *Feed) applyDefaults() {
	f.Provider = strings.ToLower(strings.TrimSpace(f.Provider))
	if f.Provider == "" {
		f.Provider = "stub"
	}
}

// Journal configures the append-only outcome log.
type Journal struct {
	Path string `yaml:"path"`
}
