package exchange

import (
	"hash/fnv"
	"math"
	"time"

	"levelbot-go/internal/signal"
	"levelbot-go/internal/strategy"
)

// fetchStub synthesizes a smooth oscillating series per symbol. The same symbol, period and
// instant always produce the same candles.
func (f *Feed) fetchStub(symbol string, period time.Duration, offset, count int) []signal.Candle {
	pip := strategy.PipSize(symbol)
	base := 1.1
	if pip == 0.01 {
		base = 150
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	phase := float64(h.Sum32() % 97)

	newest := strategy.FrameStart(f.clock.Now(), period)
	out := make([]signal.Candle, count)
	for i := range out {
		ts := newest.Add(-time.Duration(count-1-i+offset) * period)
		k := float64(ts.Unix()/int64(period/time.Second)) + phase
		open := base + pip*20*math.Sin(k/7)
		closePx := open + pip*3*math.Cos(k/3)
		out[i] = signal.Candle{
			Open:  open,
			Close: closePx,
			High:  math.Max(open, closePx) + pip*2,
			Low:   math.Min(open, closePx) - pip*2,
			Ts:    ts,
		}
	}
	return out
}
