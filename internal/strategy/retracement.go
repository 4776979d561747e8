package strategy

import "levelbot-go/internal/signal"

const bodyEpsilon = 0.00001

// RetracementState records whether the forming candle has pulled back within the current period.
type RetracementState struct {
	HasRetraced bool    `json:"has_retraced"`
	BodySize    float64 `json:"body_size"`
}

// RetracementTracker holds one RetracementState per instrument. It is not safe for concurrent
// use; the owning session serializes access.
type RetracementTracker struct {
	minFraction float64
	states      map[string]*RetracementState
}

// NewRetracementTracker seeds an entry for every symbol of the universe.
func NewRetracementTracker(minFraction float64, symbols []string) *RetracementTracker {
	t := &RetracementTracker{
		minFraction: minFraction,
		states:      make(map[string]*RetracementState, len(symbols)),
	}
	for _, sym := range symbols {
		t.states[sym] = &RetracementState{}
	}
	return t
}

// Update folds the still-forming candle into the symbol's state and returns the flag.
// The flag only ever moves from false to true between resets.
func (t *RetracementTracker) Update(symbol string, c signal.Candle) bool {
	st := t.state(symbol)
	body := c.Body()
	st.BodySize = body
	if body > bodyEpsilon {
		up := (c.High - c.Close) / body
		down := (c.Close - c.Low) / body
		if up >= t.minFraction || down >= t.minFraction {
			st.HasRetraced = true
		}
	}
	return st.HasRetraced
}

// HasRetraced returns the current flag for symbol.
func (t *RetracementTracker) HasRetraced(symbol string) bool {
	return t.State(symbol).HasRetraced
}

// State returns a copy of the symbol's state, zero for an unknown symbol. It never writes,
// so concurrent readers are safe.
func (t *RetracementTracker) State(symbol string) RetracementState {
	if st, ok := t.states[symbol]; ok {
		return *st
	}
	return RetracementState{}
}

// Reset clears the symbol's flag at period rollover.
func (t *RetracementTracker) Reset(symbol string) {
	*t.state(symbol) = RetracementState{}
}

// ResetAll clears every instrument.
func (t *RetracementTracker) ResetAll() {
	for _, st := range t.states {
		*st = RetracementState{}
	}
}

func (t *RetracementTracker) state(symbol string) *RetracementState {
	st, ok := t.states[symbol]
	if !ok {
		st = &RetracementState{}
		t.states[symbol] = st
	}
	return st
}
