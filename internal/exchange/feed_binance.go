package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/gorilla/websocket"

	"levelbot-go/internal/signal"
)

type binanceEnvelope struct {
	Stream string            `json:"stream"`
	Data   binanceKlineEvent `json:"data"`
}

type binanceKlineEvent struct {
	Symbol string       `json:"s"`
	Kline  binanceKline `json:"k"`
}

type binanceKline struct {
	StartTime int64  `json:"t"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Closed    bool   `json:"x"`
}

func (f *Feed) fetchBinance(ctx context.Context, symbol string, period time.Duration, interval string, offset, count int) ([]signal.Candle, error) {
	limit := min(count+offset, maxRESTLimit)
	venue := f.VenueSymbol(symbol)
	klines, err := f.rest.NewKlinesService().
		Symbol(venue).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", venue, interval, err)
	}
	candles := make([]signal.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := candleFromKline(k)
		if err != nil {
			f.log.Warn().Err(err).Str("symbol", symbol).Msg("invalid kline from binance")
			continue
		}
		candles = append(candles, c)
	}
	if period == f.streamPeriod {
		candles = f.cache.Overlay(symbol, interval, candles)
	}
	return window(candles, offset, count), nil
}

func candleFromKline(k *binance.Kline) (signal.Candle, error) {
	return parseCandle(k.OpenTime, k.Open, k.High, k.Low, k.Close)
}

func parseCandle(openTime int64, open, high, low, close string) (signal.Candle, error) {
	var vals [4]float64
	for i, raw := range []string{open, high, low, close} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return signal.Candle{}, err
		}
		vals[i] = v
	}
	return signal.Candle{
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
		Ts:    time.UnixMilli(openTime).UTC(),
	}, nil
}

func (f *Feed) runBinanceStream(ctx context.Context) error {
	if len(f.symbols) == 0 {
		return fmt.Errorf("binance stream requires at least one symbol")
	}
	interval, err := Interval(f.streamPeriod)
	if err != nil {
		return err
	}
	index := f.venueIndex()
	streams := make([]string, 0, len(index))
	for _, sym := range f.symbols {
		streams = append(streams, strings.ToLower(f.VenueSymbol(sym))+"@kline_"+interval)
	}

	url := fmt.Sprintf("%s/stream?streams=%s", f.streamURL, strings.Join(streams, "/"))
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consumeBinanceStream(ctx, url, index); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Msg("binance stream disconnected, retrying")
			select {
			case <-f.clock.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consumeBinanceStream(ctx context.Context, url string, index map[string]string) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.log.Info().Str("provider", ProviderBinance).Strs("symbols", f.symbols).Msg("connected kline stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("binance ping failed")
					return
				}
			case <-pingCtx.Done():
				// unblocks ReadMessage on shutdown
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := f.handleStreamMessage(message, index); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode binance message")
		}
	}
}

func (f *Feed) handleStreamMessage(message []byte, index map[string]string) error {
	var env binanceEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		return err
	}
	venue := parseBinanceSymbol(env.Stream)
	if env.Data.Symbol != "" {
		venue = strings.ToUpper(env.Data.Symbol)
	}
	symbol, ok := index[venue]
	if !ok {
		return fmt.Errorf("unexpected stream symbol %q", venue)
	}
	k := env.Data.Kline
	candle, err := parseCandle(k.StartTime, k.Open, k.High, k.Low, k.Close)
	if err != nil {
		return err
	}
	f.cache.Put(symbol, k.Interval, []signal.Candle{candle}, 4)
	return nil
}

func parseBinanceSymbol(stream string) string {
	parts := strings.Split(stream, "@")
	if len(parts) == 0 || parts[0] == "" {
		return strings.ToUpper(stream)
	}
	return strings.ToUpper(parts[0])
}
