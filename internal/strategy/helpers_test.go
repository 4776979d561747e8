package strategy

import (
	"time"

	"levelbot-go/internal/signal"
)

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

// rangeCandles builds n candles opening at 1.005 whose lows and highs never share a bin.
func rangeCandles(n int) []signal.Candle {
	out := make([]signal.Candle, n)
	for i := range out {
		out[i] = signal.Candle{
			Open:  1.005,
			Close: 1.006,
			Low:   0.90 + float64(i)*0.001,
			High:  1.20 + float64(i)*0.001,
			Ts:    t0.Add(time.Duration(i-n+1) * 5 * time.Minute),
		}
	}
	return out
}

func c(open, high, low, close float64) signal.Candle {
	return signal.Candle{Open: open, High: high, Low: low, Close: close}
}
