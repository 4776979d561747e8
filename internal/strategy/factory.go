package strategy

import (
	"time"

	"levelbot-go/internal/signal"
)

// Params expresses tunable knobs required by the analyzer.
type Params struct {
	Levels          LevelParams
	MinDistancePips float64
	MinRetracement  float64
	Period          time.Duration
	EarlyWindow     time.Duration
}

// Analyzer bundles the configured detectors the engine runs every cycle.
type Analyzer struct {
	params Params
	entry  EntryRule
}

// Build returns an Analyzer, filling unset knobs with the stock defaults.
func Build(params Params) *Analyzer {
	if params.Levels.MinTouches <= 0 {
		params.Levels.MinTouches = 2
	}
	if params.Levels.MinDistanceBetweenTouches <= 0 {
		params.Levels.MinDistanceBetweenTouches = 5
	}
	if params.Levels.TolerancePips <= 0 {
		params.Levels.TolerancePips = 2
	}
	if params.Levels.MinRegionSeparation <= 0 {
		params.Levels.MinRegionSeparation = 10
	}
	if params.MinRetracement <= 0 {
		params.MinRetracement = 0.2
	}
	if params.Period <= 0 {
		params.Period = 5 * time.Minute
	}
	if params.EarlyWindow <= 0 {
		params.EarlyWindow = 2 * time.Minute
	}
	return &Analyzer{
		params: params,
		entry: EntryRule{
			MinDistancePips: params.MinDistancePips,
			Period:          params.Period,
			EarlyWindow:     params.EarlyWindow,
		},
	}
}

// Params returns the effective configuration.
func (a *Analyzer) Params() Params { return a.params }

// Levels runs the level detector with the configured parameters.
func (a *Analyzer) Levels(symbol string, candles []signal.Candle) (Levels, error) {
	return DetectLevels(symbol, candles, a.params.Levels)
}

// Lateral runs the lateralization filter.
func (a *Analyzer) Lateral(candles []signal.Candle) bool { return IsLateral(candles) }

// Entry evaluates the entry rule.
func (a *Analyzer) Entry(in EntryInput) Verdict { return a.entry.Evaluate(in) }

// NewTracker creates a retracement tracker for the universe.
func (a *Analyzer) NewTracker(symbols []string) *RetracementTracker {
	return NewRetracementTracker(a.params.MinRetracement, symbols)
}
