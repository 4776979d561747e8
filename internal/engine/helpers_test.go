package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"levelbot-go/internal/news"
	"levelbot-go/internal/paper"
	"levelbot-go/internal/signal"
	"levelbot-go/internal/strategy"
)

// Monday 10:01 UTC: one minute into a 5m period, outside every stretch window.
var t0 = time.Date(2026, 3, 2, 10, 1, 0, 0, time.UTC)

type seriesKey struct {
	symbol string
	period time.Duration
}

type fakeFeed struct {
	mu     sync.Mutex
	series map[seriesKey][]signal.Candle
	errs   map[string]error
	calls  int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{series: make(map[seriesKey][]signal.Candle), errs: make(map[string]error)}
}

func (f *fakeFeed) set(symbol string, period time.Duration, candles []signal.Candle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.series[seriesKey{symbol, period}] = candles
}

func (f *fakeFeed) fail(symbol string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, symbol)
		return
	}
	f.errs[symbol] = err
}

func (f *fakeFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFeed) Fetch(_ context.Context, symbol string, period time.Duration, offset, count int) ([]signal.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	all := f.series[seriesKey{symbol, period}]
	if offset >= len(all) {
		return nil, nil
	}
	all = all[:len(all)-offset]
	if len(all) > count {
		all = all[len(all)-count:]
	}
	return append([]signal.Candle(nil), all...), nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingNotifier) Send(_ context.Context, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, text)
	return true
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

type stubGate struct {
	blocked bool
}

func (g stubGate) Blocked(string, time.Time) (bool, news.Event) {
	if !g.blocked {
		return false, news.Event{}
	}
	return true, news.Event{Title: "Non-Farm Employment Change", Currency: "USD", Impact: news.ImpactHigh}
}

var (
	bullWick = candle(1.0020, 1.0033, 1.0015, 1.0030)
	touch    = candle(1.0010, 1.0012, 1.0000, 1.0000)
	drift    = candle(1.0005, 1.0010, 1.0002, 1.0005)
)

func candle(open, high, low, close float64) signal.Candle {
	return signal.Candle{Open: open, High: high, Low: low, Close: close}
}

// background builds n candles whose lows and highs never share a 2-pip bin.
func background(n int) []signal.Candle {
	out := make([]signal.Candle, n)
	for i := range out {
		out[i] = signal.Candle{
			Open:  1.005,
			Close: 1.006,
			Low:   0.80 + float64(i)*0.001,
			High:  1.20 + float64(i)*0.001,
			Ts:    t0.Add(time.Duration(i-n+1) * 5 * time.Minute),
		}
	}
	return out
}

// rangeSeries has support 1.0000 and resistance 1.0100, each touched twice 30+ candles apart,
// and ends with the given tail.
func rangeSeries(tail ...signal.Candle) []signal.Candle {
	out := background(100)
	out[10].Low, out[45].Low = 1.0, 1.00003
	out[15].High, out[55].High = 1.01, 1.00995
	for i, c := range tail {
		idx := len(out) - len(tail) + i
		c.Ts = out[idx].Ts
		out[idx] = c
	}
	return out
}

// buySeries closes the forming candle exactly on support after two confirming wicks.
func buySeries() []signal.Candle { return rangeSeries(bullWick, bullWick, touch) }

// closedAt replaces the candle before the forming one so offset-1 fetches return exit.
func closedAt(exit float64) []signal.Candle {
	return rangeSeries(candle(1.0010, 1.0012, 0.9990, exit), drift)
}

type harness struct {
	engine   *Engine
	feed     *fakeFeed
	notifier *recordingNotifier
	clock    clockwork.FakeClock
	board    *paper.Scoreboard
	ledger   *paper.Ledger
}

func newHarness(symbols []string, gate NewsGate) *harness {
	feed := newFakeFeed()
	notifier := &recordingNotifier{}
	clock := clockwork.NewFakeClockAt(t0)
	ledger := paper.NewLedger(16)
	board := paper.NewScoreboard(ledger)
	analyzer := strategy.Build(strategy.Params{MinDistancePips: 3})
	opts := Options{
		Symbols:        symbols,
		Period:         5 * time.Minute,
		AnalysisWindow: 2 * time.Minute,
		PollInterval:   time.Second,
		IdleWait:       5 * time.Minute,
		Hours:          Hours{Start: 6, End: 17, Location: time.UTC},
	}
	eng := New(opts, analyzer, Deps{
		Feed:     feed,
		Notifier: notifier,
		News:     gate,
		Board:    board,
		Clock:    clock,
		Log:      zerolog.Nop(),
	})
	return &harness{engine: eng, feed: feed, notifier: notifier, clock: clock, board: board, ledger: ledger}
}

var errVenueDown = errors.New("venue down")

func describe(sigs []signal.Signal) string {
	out := ""
	for _, s := range sigs {
		out += fmt.Sprintf("%s:%s@%v ", s.Symbol, s.Direction, s.EntryPrice)
	}
	return out
}
