package exchange

import (
	"sync"

	"levelbot-go/internal/signal"
)

// KlineCache keeps the latest streamed candles per symbol and interval.
type KlineCache struct {
	mu   sync.RWMutex
	data map[string][]signal.Candle
}

// NewKlineCache returns an empty cache.
func NewKlineCache() *KlineCache {
	return &KlineCache{data: make(map[string][]signal.Candle)}
}

func cacheKey(symbol, interval string) string { return symbol + "@" + interval }

// Put appends candles, replacing the tail when it shares an open time, and trims to max.
func (c *KlineCache) Put(symbol, interval string, candles []signal.Candle, max int) {
	if len(candles) == 0 {
		return
	}
	if max <= 0 {
		max = 100
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(symbol, interval)
	cur := c.data[k]
	for _, candle := range candles {
		n := len(cur)
		if n > 0 && cur[n-1].Ts.Equal(candle.Ts) {
			cur[n-1] = candle
			continue
		}
		cur = append(cur, candle)
	}
	if len(cur) > max {
		cur = cur[len(cur)-max:]
	}
	c.data[k] = cur
}

// Latest returns the newest cached candle.
func (c *KlineCache) Latest(symbol, interval string) (signal.Candle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cur := c.data[cacheKey(symbol, interval)]
	if len(cur) == 0 {
		return signal.Candle{}, false
	}
	return cur[len(cur)-1], true
}

// Overlay replaces or extends the tail of candles with the newest cached candle when it is at
// least as recent.
func (c *KlineCache) Overlay(symbol, interval string, candles []signal.Candle) []signal.Candle {
	latest, ok := c.Latest(symbol, interval)
	if !ok || len(candles) == 0 {
		return candles
	}
	last := candles[len(candles)-1]
	switch {
	case latest.Ts.Equal(last.Ts):
		candles[len(candles)-1] = latest
	case latest.Ts.After(last.Ts):
		candles = append(candles, latest)
	}
	return candles
}
