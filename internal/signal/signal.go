// Package signal standardizes payloads shared between the market feed, strategy and scoring layers.
package signal

import "time"

// Candle is one OHLC bucket; Ts is the bucket open time.
type Candle struct {
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
	Ts    time.Time `json:"ts"`
}

// Body returns |close-open|.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Range returns high-low.
func (c Candle) Range() float64 { return c.High - c.Low }

// Direction is the bias of an armed signal.
type Direction string

const (
	// Buy is emitted when price closes on support.
	Buy Direction = "buy"
	// Sell is emitted when price closes on resistance.
	Sell Direction = "sell"
)

// Arrow renders the direction the way notifications show it.
func (d Direction) Arrow() string {
	switch d {
	case Buy:
		return "buy ⬆️"
	case Sell:
		return "sell ⬇️"
	default:
		return string(d)
	}
}

// Signal is a pending directional call awaiting evaluation at period rollover.
type Signal struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	Support    float64   `json:"support"`
	Resistance float64   `json:"resistance"`
	ArmedAt    time.Time `json:"armed_at"`
}

// Outcome is the scored result of a Signal.
type Outcome struct {
	Signal      Signal    `json:"signal"`
	ExitPrice   float64   `json:"exit_price"`
	Success     bool      `json:"success"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Stats aggregates signal results over the process lifetime.
type Stats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}
