// Package exchange hosts connectors for centralized venues and candle sources.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"levelbot-go/internal/metrics"
	"levelbot-go/internal/signal"
)

const (
	// ProviderStub emits deterministic synthetic candles (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderBinance serves history from Binance REST and, optionally, the forming candle from its websocket.
	ProviderBinance = "binance"
)

// ErrUnsupportedPeriod is returned for candle periods the venue has no interval for.
var ErrUnsupportedPeriod = errors.New("unsupported candle period")

var intervals = map[time.Duration]string{
	time.Minute:      "1m",
	5 * time.Minute:  "5m",
	15 * time.Minute: "15m",
	30 * time.Minute: "30m",
	time.Hour:        "1h",
	4 * time.Hour:    "4h",
	24 * time.Hour:   "1d",
}

// Interval maps a candle period to the venue's interval code.
func Interval(period time.Duration) (string, error) {
	iv, ok := intervals[period]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPeriod, period)
	}
	return iv, nil
}

// Feed serves candle windows for the configured universe.
type Feed struct {
	provider     string
	symbols      []string
	log          zerolog.Logger
	clock        clockwork.Clock
	rest         *binance.Client
	streamURL    string
	streamPeriod time.Duration
	venue        map[string]string
	cache        *KlineCache
	mu           sync.RWMutex
}

// Option configures Feed construction parameters.
type Option func(*Feed)

const (
	defaultRESTBaseURL = "https://api.binance.com"
	defaultStreamURL   = "wss://stream.binance.com:9443"
	maxRESTLimit       = 1000
)

// WithRESTBaseURL points history requests at another host.
func WithRESTBaseURL(baseURL string) Option {
	return func(f *Feed) {
		if baseURL != "" {
			f.rest.BaseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient overrides the client used for history requests.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Feed) {
		if c != nil {
			f.rest.HTTPClient = c
		}
	}
}

// WithStream enables the websocket overlay of the still-forming candle for period.
// An empty url selects the public Binance endpoint.
func WithStream(url string, period time.Duration) Option {
	return func(f *Feed) {
		if url == "" {
			url = defaultStreamURL
		}
		f.streamURL = strings.TrimSuffix(url, "/")
		f.streamPeriod = period
	}
}

// WithClock injects the clock the stub provider aligns candles to.
func WithClock(c clockwork.Clock) Option {
	return func(f *Feed) {
		if c != nil {
			f.clock = c
		}
	}
}

// WithVenueSymbols overrides the venue ticker used for individual symbols.
func WithVenueSymbols(m map[string]string) Option {
	return func(f *Feed) {
		for sym, venue := range m {
			f.venue[strings.ToUpper(sym)] = strings.ToUpper(venue)
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, symbols []string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	rest := binance.NewClient("", "")
	rest.BaseURL = defaultRESTBaseURL
	f := &Feed{
		provider: strings.ToLower(provider),
		symbols:  append([]string(nil), symbols...),
		log:      log,
		clock:    clockwork.NewRealClock(),
		rest:     rest,
		venue:    make(map[string]string),
		cache:    NewKlineCache(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Provider reports the active provider name.
func (f *Feed) Provider() string { return f.provider }

// Fetch returns count candles of the given period for symbol, newest last. Offset 0 includes the
// candle still forming; offset 1 ends at the most recently closed one.
func (f *Feed) Fetch(ctx context.Context, symbol string, period time.Duration, offset, count int) ([]signal.Candle, error) {
	if count <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}
	interval, err := Interval(period)
	if err != nil {
		return nil, err
	}
	var candles []signal.Candle
	switch f.provider {
	case ProviderBinance:
		candles, err = f.fetchBinance(ctx, symbol, period, interval, offset, count)
	default:
		candles = f.fetchStub(symbol, period, offset, count)
	}
	if err != nil {
		return nil, err
	}
	metrics.CandlesFetched.WithLabelValues(symbol, interval).Add(float64(len(candles)))
	return candles, nil
}

// Run keeps the live overlay connected until ctx is canceled. Providers without a stream just wait.
func (f *Feed) Run(ctx context.Context) error {
	if f.provider == ProviderBinance && f.streamURL != "" {
		return f.runBinanceStream(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

// window drops the newest offset candles and keeps the last count of the rest.
func window(candles []signal.Candle, offset, count int) []signal.Candle {
	if offset >= len(candles) {
		return nil
	}
	candles = candles[:len(candles)-offset]
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles
}
