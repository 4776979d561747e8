// Package engine runs the per-period analysis cycle: it fetches candles, arms at most one signal
// per instrument per period and scores pending signals at rollover.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"levelbot-go/internal/config"
	"levelbot-go/internal/metrics"
	"levelbot-go/internal/news"
	"levelbot-go/internal/notify"
	"levelbot-go/internal/paper"
	"levelbot-go/internal/signal"
	"levelbot-go/internal/strategy"
)

const (
	// WindowCandles is the base-period history fetched each cycle.
	WindowCandles = 100
	// MinCycleCandles is the shortest history worth analyzing.
	MinCycleCandles = strategy.LateralWindow + 1
)

// Feed supplies candles newest last. Offset 0 includes the forming candle.
type Feed interface {
	Fetch(ctx context.Context, symbol string, period time.Duration, offset, count int) ([]signal.Candle, error)
}

// NewsGate reports whether an instrument is inside a news blocking window.
type NewsGate interface {
	Blocked(symbol string, now time.Time) (bool, news.Event)
}

// Options are the scheduling knobs of the engine.
type Options struct {
	Symbols        []string
	Period         time.Duration
	AnalysisWindow time.Duration
	PollInterval   time.Duration
	IdleWait       time.Duration
	Hours          Hours
}

// OptionsFromConfig maps the loaded configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Symbols:        cfg.CleanSymbols(),
		Period:         cfg.Period(),
		AnalysisWindow: cfg.AnalysisWindow(),
		PollInterval:   cfg.PollInterval(),
		IdleWait:       cfg.IdleWait(),
		Hours: Hours{
			Start:         cfg.TradingHours.StartHour,
			End:           cfg.TradingHours.EndHour,
			Location:      cfg.Location(),
			AllowWeekends: cfg.TradingHours.AllowWeekends,
		},
	}
}

// Deps are the collaborators the engine drives.
type Deps struct {
	Feed     Feed
	Notifier notify.Notifier
	News     NewsGate
	Board    *paper.Scoreboard
	Clock    clockwork.Clock
	Log      zerolog.Logger
}

// Engine evaluates the configured universe one instrument at a time.
type Engine struct {
	opts     Options
	analyzer *strategy.Analyzer
	session  *Session
	feed     Feed
	notifier notify.Notifier
	news     NewsGate
	clock    clockwork.Clock
	log      zerolog.Logger
}

// New wires an engine. A nil clock uses the wall clock; a nil news gate never blocks.
func New(opts Options, analyzer *strategy.Analyzer, deps Deps) *Engine {
	if opts.Period <= 0 {
		opts.Period = analyzer.Params().Period
	}
	if opts.AnalysisWindow <= 0 || opts.AnalysisWindow >= opts.Period {
		opts.AnalysisWindow = analyzer.Params().EarlyWindow
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.IdleWait <= 0 {
		opts.IdleWait = 5 * time.Minute
	}
	if opts.Hours.Location == nil {
		opts.Hours.Location = time.Local
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	return &Engine{
		opts:     opts,
		analyzer: analyzer,
		session:  NewSession(opts.Symbols, analyzer.NewTracker(opts.Symbols), deps.Board),
		feed:     deps.Feed,
		notifier: deps.Notifier,
		news:     deps.News,
		clock:    deps.Clock,
		log:      deps.Log,
	}
}

// Session exposes the per-instrument state.
func (e *Engine) Session() *Session { return e.session }

func (e *Engine) now() time.Time { return e.clock.Now().In(e.opts.Hours.Location) }

// Run drives the cycle until ctx is canceled: idle outside trading hours, align to a period
// boundary, analyze during the early window, then score at the next boundary.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().Strs("symbols", e.opts.Symbols).Dur("period", e.opts.Period).Msg("signal engine started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := e.now()
		if !e.opts.Hours.Open(now) {
			e.log.Debug().Time("now", now).Msg("outside trading hours")
			if err := sleep(ctx, e.clock, e.opts.IdleWait); err != nil {
				return err
			}
			continue
		}
		if strategy.OffsetInFrame(now, e.opts.Period) >= e.opts.AnalysisWindow {
			if err := sleepUntil(ctx, e.clock, NextBoundary(now, e.opts.Period)); err != nil {
				return err
			}
			continue
		}
		start := strategy.FrameStart(now, e.opts.Period)
		if err := e.analyze(ctx, start.Add(e.opts.AnalysisWindow)); err != nil {
			return err
		}
		if err := sleepUntil(ctx, e.clock, start.Add(e.opts.Period)); err != nil {
			return err
		}
		e.Rollover(ctx)
	}
}

func (e *Engine) analyze(ctx context.Context, deadline time.Time) error {
	for e.clock.Now().Before(deadline) {
		e.AnalyzeOnce(ctx)
		if err := sleep(ctx, e.clock, min(e.opts.PollInterval, deadline.Sub(e.clock.Now()))); err != nil {
			return err
		}
	}
	return nil
}

// AnalyzeOnce evaluates every instrument once, in order, and returns the signals armed.
// Per-instrument failures are logged and never stop the pass.
func (e *Engine) AnalyzeOnce(ctx context.Context) []signal.Signal {
	var armed []signal.Signal
	for _, sym := range e.opts.Symbols {
		if ctx.Err() != nil {
			break
		}
		sig, reason, err := e.processInstrument(ctx, sym)
		switch {
		case err != nil:
			e.logSkip(sym, err)
		case sig != nil:
			armed = append(armed, *sig)
		case reason != "":
			e.log.Debug().Str("symbol", sym).Str("reason", string(reason)).Msg("no entry")
		}
	}
	return armed
}

func (e *Engine) logSkip(symbol string, err error) {
	switch {
	case errors.Is(err, strategy.ErrInsufficientData), errors.Is(err, strategy.ErrNoLevel):
		e.log.Debug().Err(err).Str("symbol", symbol).Msg("instrument skipped")
	default:
		e.log.Warn().Err(err).Str("symbol", symbol).Msg("instrument skipped")
	}
}

func (e *Engine) processInstrument(ctx context.Context, symbol string) (*signal.Signal, strategy.Rejection, error) {
	candles, err := e.feed.Fetch(ctx, symbol, e.opts.Period, 0, WindowCandles)
	if err != nil {
		return nil, "", fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) < MinCycleCandles {
		return nil, "", fmt.Errorf("%w: %d candles", strategy.ErrInsufficientData, len(candles))
	}
	cur := candles[len(candles)-1]
	retraced := e.session.UpdateRetracement(symbol, cur)

	levels, err := e.analyzer.Levels(symbol, candles)
	if err != nil {
		return nil, "", err
	}
	if !e.analyzer.Lateral(candles) {
		e.log.Debug().Str("symbol", symbol).Msg("market not lateral")
		return nil, "", nil
	}

	now := e.now()
	verdict := e.analyzer.Entry(strategy.EntryInput{
		Symbol:   symbol,
		Candles:  candles,
		Levels:   levels,
		Retraced: retraced,
		Now:      now,
	})
	toSupport, toResistance := strategy.Distances(symbol, cur.Open, levels)
	e.log.Debug().
		Str("symbol", symbol).
		Float64("support", levels.Support).
		Float64("resistance", levels.Resistance).
		Float64("dist_support_pips", toSupport).
		Float64("dist_resistance_pips", toResistance).
		Msg("waiting for best entry")
	if !verdict.OK {
		return nil, verdict.Reason, nil
	}

	if e.session.Phase(symbol) != PhaseIdle {
		return nil, strategy.RejectAlreadySignaled, nil
	}
	if e.news != nil {
		if blocked, ev := e.news.Blocked(symbol, now); blocked {
			metrics.NewsBlocked.WithLabelValues(symbol).Inc()
			e.log.Info().Str("symbol", symbol).Str("event", ev.Title).Str("currency", ev.Currency).
				Time("at", ev.Time).Msg("signal blocked by news")
			return nil, strategy.RejectNewsWindow, nil
		}
	}
	for _, frame := range strategy.StretchFrames(now, e.opts.Period) {
		htf, err := e.feed.Fetch(ctx, symbol, frame, 1, 1)
		if err != nil || len(htf) == 0 || !strategy.IsStretched(htf[len(htf)-1]) {
			return nil, strategy.RejectNotStretched, nil
		}
	}

	sig := signal.Signal{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Direction:  verdict.Direction,
		EntryPrice: cur.Close,
		Support:    levels.Support,
		Resistance: levels.Resistance,
		ArmedAt:    now,
	}
	stats, err := e.session.Arm(sig)
	if err != nil {
		if errors.Is(err, ErrAlreadyArmed) {
			return nil, strategy.RejectAlreadySignaled, nil
		}
		return nil, "", err
	}
	metrics.SignalsTotal.WithLabelValues(symbol, string(sig.Direction)).Inc()
	metrics.PendingSignals.Set(float64(len(e.session.PendingAll())))
	e.log.Info().
		Str("id", sig.ID).
		Str("symbol", symbol).
		Str("direction", string(sig.Direction)).
		Float64("price", sig.EntryPrice).
		Int("total", stats.Total).
		Msg("signal armed")
	if e.notifier != nil {
		e.notifier.Send(ctx, SignalMessage(sig, e.opts.Hours.Location))
	}
	return &sig, "", nil
}

// Rollover scores every pending signal against the last closed candle and returns the outcomes.
// Signals whose price cannot be fetched stay armed for the next rollover.
func (e *Engine) Rollover(ctx context.Context) []signal.Outcome {
	now := e.now()
	pending := e.session.BeginRollover()
	var outcomes []signal.Outcome
	for _, sig := range pending {
		candles, err := e.feed.Fetch(ctx, sig.Symbol, e.opts.Period, 1, 1)
		if err != nil || len(candles) == 0 {
			e.log.Warn().Err(err).Str("symbol", sig.Symbol).Str("id", sig.ID).Msg("no closing price, deferring evaluation")
			_ = e.session.Defer(sig.Symbol)
			continue
		}
		out, stats, err := e.session.Complete(sig.Symbol, candles[len(candles)-1].Close, now)
		if err != nil {
			e.log.Warn().Err(err).Str("symbol", sig.Symbol).Msg("complete signal")
			continue
		}
		result := "failure"
		if out.Success {
			result = "success"
		}
		metrics.OutcomesTotal.WithLabelValues(sig.Symbol, result).Inc()
		e.log.Info().
			Str("id", sig.ID).
			Str("symbol", sig.Symbol).
			Str("result", result).
			Float64("entry", sig.EntryPrice).
			Float64("exit", out.ExitPrice).
			Int("total", stats.Total).
			Int("successful", stats.Successful).
			Int("failed", stats.Failed).
			Msg("signal evaluated")
		if e.notifier != nil {
			e.notifier.Send(ctx, OutcomeMessage(out, stats))
		}
		outcomes = append(outcomes, out)
	}
	e.session.FinishRollover()
	metrics.PendingSignals.Set(float64(len(e.session.PendingAll())))
	return outcomes
}
