// Package strategy contains the price-structure analysis that turns candle windows into directional signals.
package strategy

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	coarsePip = 0.01
	finePip   = 0.0001
)

// PipSize returns the price value of one pip. Pairs quoted in JPY use the coarse 3-digit scale.
func PipSize(symbol string) float64 {
	if strings.Contains(strings.ToUpper(symbol), "JPY") {
		return coarsePip
	}
	return finePip
}

// PriceDecimals is the number of decimals used when displaying prices of symbol.
func PriceDecimals(symbol string) int32 {
	if strings.Contains(strings.ToUpper(symbol), "JPY") {
		return 3
	}
	return 5
}

// FormatPrice renders price with the instrument's quote precision.
func FormatPrice(symbol string, price float64) string {
	return decimal.NewFromFloat(price).StringFixed(PriceDecimals(symbol))
}

// ToPips converts an absolute price distance into pips.
func ToPips(symbol string, delta float64) float64 {
	return math.Abs(delta) / PipSize(symbol)
}

// OffsetInFrame reports how far t is into its frame, counted from local midnight so that
// frames dividing a day line up with wall-clock minutes in t's location.
func OffsetInFrame(t time.Time, frame time.Duration) time.Duration {
	if frame <= 0 {
		return 0
	}
	h, m, s := t.Clock()
	sinceMidnight := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
	return sinceMidnight % frame
}

// FrameStart returns the opening instant of the frame containing t.
func FrameStart(t time.Time, frame time.Duration) time.Time {
	return t.Add(-OffsetInFrame(t, frame))
}
