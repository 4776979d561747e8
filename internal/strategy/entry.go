package strategy

import (
	"time"

	"levelbot-go/internal/signal"
)

// Rejection names the first entry condition an evaluation failed.
type Rejection string

const (
	RejectNoCandles       Rejection = "no candles"
	RejectOutsideLevels   Rejection = "open outside support/resistance"
	RejectLateInPeriod    Rejection = "past early window of period"
	RejectNotOnLevel      Rejection = "close not on a level"
	RejectNoRetracement   Rejection = "no retracement this period"
	RejectTooClose        Rejection = "open too close to level"
	RejectWicks           Rejection = "previous wicks do not confirm"
	RejectNotStretched    Rejection = "higher timeframe not stretched"
	RejectNewsWindow      Rejection = "news window active"
	RejectAlreadySignaled Rejection = "signal already pending"
)

// EntryRule holds the pure entry conditions evaluated against the forming candle.
type EntryRule struct {
	MinDistancePips float64
	Period          time.Duration
	EarlyWindow     time.Duration
}

// EntryInput is everything the rule needs at one evaluation instant.
type EntryInput struct {
	Symbol   string
	Candles  []signal.Candle
	Levels   Levels
	Retraced bool
	Now      time.Time
}

// Verdict is the outcome of EntryRule.Evaluate.
type Verdict struct {
	Direction signal.Direction
	OK        bool
	Reason    Rejection
}

func reject(r Rejection) Verdict { return Verdict{Reason: r} }

// Evaluate arms a buy when the forming candle closes exactly on support, or a sell when it closes
// exactly on resistance, provided its open sits strictly between the levels, the instant is early
// in the period, the instrument retraced, the open is far enough from the touched level and the
// two previous candles carry confirming wicks.
//
// Closes are compared to the level with ==. With live float prices this almost never fires;
// the comparison stays exact until a tolerance is agreed on.
func (r EntryRule) Evaluate(in EntryInput) Verdict {
	if len(in.Candles) == 0 {
		return reject(RejectNoCandles)
	}
	cur := in.Candles[len(in.Candles)-1]
	support, resistance := in.Levels.Support, in.Levels.Resistance

	if !(support < cur.Open && cur.Open < resistance) {
		return reject(RejectOutsideLevels)
	}
	if OffsetInFrame(in.Now, r.Period) >= r.EarlyWindow {
		return reject(RejectLateInPeriod)
	}

	var dir signal.Direction
	var level float64
	switch {
	case cur.Close == support:
		dir, level = signal.Buy, support
	case cur.Close == resistance:
		dir, level = signal.Sell, resistance
	default:
		return reject(RejectNotOnLevel)
	}
	if !in.Retraced {
		return reject(RejectNoRetracement)
	}
	if ToPips(in.Symbol, cur.Open-level) < r.MinDistancePips {
		return reject(RejectTooClose)
	}
	if !WicksValid(in.Candles, dir) {
		return reject(RejectWicks)
	}
	return Verdict{Direction: dir, OK: true}
}

// Distances returns the pip distance from open down to support and up to resistance, floored at zero.
func Distances(symbol string, open float64, levels Levels) (toSupport, toResistance float64) {
	pip := PipSize(symbol)
	toSupport = max(0, (open-levels.Support)/pip)
	toResistance = max(0, (levels.Resistance-open)/pip)
	return toSupport, toResistance
}
