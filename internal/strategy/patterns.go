package strategy

import (
	"time"

	"levelbot-go/internal/signal"
)

const (
	minWickRatio   = 0.20
	maxWickRatio   = 0.40
	stretchedRatio = 0.7
)

var stretchMultiples = []time.Duration{3, 6, 12}

// WickValid checks one candle's wicks against the expected direction: buys want a lower wick of
// at least 20% of the body and an upper wick of at most 40%; sells the mirror image.
func WickValid(c signal.Candle, dir signal.Direction) bool {
	body := c.Body()
	if body == 0 {
		return false
	}
	upper := c.High - max(c.Open, c.Close)
	lower := min(c.Open, c.Close) - c.Low
	switch dir {
	case signal.Buy:
		return lower >= minWickRatio*body && upper <= maxWickRatio*body
	case signal.Sell:
		return upper >= minWickRatio*body && lower <= maxWickRatio*body
	default:
		return false
	}
}

// WicksValid applies WickValid to the two candles preceding the last (forming) one.
func WicksValid(candles []signal.Candle, dir signal.Direction) bool {
	n := len(candles)
	if n < 3 {
		return false
	}
	return WickValid(candles[n-2], dir) && WickValid(candles[n-3], dir)
}

// IsStretched reports a body that dominates at least 70% of the candle range.
func IsStretched(c signal.Candle) bool {
	rng := c.Range()
	if rng == 0 {
		return false
	}
	return c.Body()/rng >= stretchedRatio
}

// StretchFrames lists the higher timeframes (3x, 6x and 12x base) whose last closed candle must
// be stretched at now: a frame applies once now is in the final third of it.
func StretchFrames(now time.Time, base time.Duration) []time.Duration {
	var frames []time.Duration
	for _, mult := range stretchMultiples {
		frame := base * mult
		if 3*OffsetInFrame(now, frame) >= 2*frame {
			frames = append(frames, frame)
		}
	}
	return frames
}
