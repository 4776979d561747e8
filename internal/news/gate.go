package news

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"levelbot-go/internal/config"
)

// Gate keeps the relevant upcoming events and answers whether an instrument is inside a blocking window.
type Gate struct {
	log        zerolog.Logger
	calendar   *Calendar
	clock      clockwork.Clock
	currencies []string
	minImpact  Impact
	window     time.Duration
	interval   time.Duration

	mu        sync.RWMutex
	events    []Event
	refreshed time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock injects the clock used by the refresh loop.
func WithClock(c clockwork.Clock) Option {
	return func(g *Gate) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithHTTPClient overrides the calendar HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gate) {
		if c != nil {
			g.calendar.client = c
		}
	}
}

// NewGate constructs a gate; returns nil if disabled.
func NewGate(cfg config.News, log zerolog.Logger, opts ...Option) *Gate {
	if !cfg.Enabled {
		return nil
	}
	currencies := make([]string, 0, len(cfg.Currencies))
	for _, cur := range cfg.Currencies {
		if cur = strings.ToUpper(strings.TrimSpace(cur)); cur != "" {
			currencies = append(currencies, cur)
		}
	}
	minImpact := ParseImpact(cfg.MinImpact)
	if minImpact == ImpactNone {
		minImpact = ImpactHigh
	}
	g := &Gate{
		log:        log,
		calendar:   NewCalendar(cfg.URL, nil),
		clock:      clockwork.NewRealClock(),
		currencies: currencies,
		minImpact:  minImpact,
		window:     cfg.Window(),
		interval:   cfg.RefreshInterval(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.window <= 0 {
		g.window = 15 * time.Minute
	}
	if g.interval <= 0 {
		g.interval = time.Hour
	}
	return g
}

// Run refreshes immediately and then on every interval until ctx is canceled.
// Failed refreshes keep the previous events.
func (g *Gate) Run(ctx context.Context) error {
	if g == nil {
		return nil
	}
	if err := g.Refresh(ctx); err != nil {
		g.log.Warn().Err(err).Msg("news refresh failed")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.clock.After(g.interval):
			if err := g.Refresh(ctx); err != nil {
				g.log.Warn().Err(err).Msg("news refresh failed")
			}
		}
	}
}

// Refresh performs a single download and swaps in the filtered events.
func (g *Gate) Refresh(ctx context.Context) error {
	if g == nil {
		return nil
	}
	all, err := g.calendar.Fetch(ctx)
	if err != nil {
		return err
	}
	kept := make([]Event, 0, len(all))
	for _, ev := range all {
		if ev.Impact < g.minImpact || !g.tracked(ev.Currency) {
			continue
		}
		kept = append(kept, ev)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Time.Before(kept[j].Time) })

	g.mu.Lock()
	g.events = kept
	g.refreshed = g.clock.Now()
	g.mu.Unlock()

	g.log.Debug().Int("events", len(kept)).Int("fetched", len(all)).Msg("news calendar refreshed")
	return nil
}

func (g *Gate) tracked(currency string) bool {
	for _, cur := range g.currencies {
		if cur == currency {
			return true
		}
	}
	return false
}

// Blocked reports whether now is within the window of an event whose currency is part of symbol.
func (g *Gate) Blocked(symbol string, now time.Time) (bool, Event) {
	if g == nil {
		return false, Event{}
	}
	symbol = strings.ToUpper(symbol)
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, ev := range g.events {
		if !strings.Contains(symbol, ev.Currency) {
			continue
		}
		delta := now.Sub(ev.Time)
		if delta < 0 {
			delta = -delta
		}
		if delta <= g.window {
			return true, ev
		}
	}
	return false, Event{}
}

// Events returns a copy of the retained events, soonest first.
func (g *Gate) Events() []Event {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Event, len(g.events))
	copy(out, g.events)
	return out
}

// LastRefresh is the instant of the latest successful refresh.
func (g *Gate) LastRefresh() time.Time {
	if g == nil {
		return time.Time{}
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.refreshed
}
