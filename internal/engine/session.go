package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"levelbot-go/internal/paper"
	"levelbot-go/internal/signal"
	"levelbot-go/internal/strategy"
)

var (
	// ErrAlreadyArmed is returned when an instrument already holds a signal this period.
	ErrAlreadyArmed = errors.New("instrument already armed")
	// ErrNotArmed is returned when completing an instrument that has nothing pending.
	ErrNotArmed = errors.New("instrument has no pending signal")
	// ErrUnknownSymbol is returned for instruments outside the configured universe.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Phase is the lifecycle state of one instrument within a period.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseArmed
	PhaseEvaluated
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseEvaluated:
		return "evaluated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase name in JSON.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (p *Phase) UnmarshalText(b []byte) error {
	for _, ph := range []Phase{PhaseIdle, PhaseArmed, PhaseEvaluated} {
		if string(b) == ph.String() {
			*p = ph
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

type slot struct {
	phase   Phase
	pending *signal.Signal
}

// Session owns every piece of per-instrument state: the lifecycle phase, the pending signal,
// the retracement flags and the scoreboard. All methods are safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	symbols []string
	slots   map[string]*slot
	tracker *strategy.RetracementTracker
	board   *paper.Scoreboard
}

// NewSession creates an Idle slot for each symbol, keeping the given order.
func NewSession(symbols []string, tracker *strategy.RetracementTracker, board *paper.Scoreboard) *Session {
	if board == nil {
		board = paper.NewScoreboard()
	}
	s := &Session{
		symbols: append([]string(nil), symbols...),
		slots:   make(map[string]*slot, len(symbols)),
		tracker: tracker,
		board:   board,
	}
	for _, sym := range symbols {
		s.slots[sym] = &slot{}
	}
	return s
}

// Symbols returns the universe in processing order.
func (s *Session) Symbols() []string {
	return append([]string(nil), s.symbols...)
}

// Phase reports the instrument's current phase.
func (s *Session) Phase(symbol string) Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sl, ok := s.slots[symbol]; ok {
		return sl.phase
	}
	return PhaseIdle
}

// Pending returns the instrument's pending signal, if any.
func (s *Session) Pending(symbol string) (signal.Signal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[symbol]
	if !ok || sl.pending == nil {
		return signal.Signal{}, false
	}
	return *sl.pending, true
}

// PendingAll returns every pending signal in processing order.
func (s *Session) PendingAll() []signal.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingLocked()
}

func (s *Session) pendingLocked() []signal.Signal {
	var out []signal.Signal
	for _, sym := range s.symbols {
		if sl := s.slots[sym]; sl.pending != nil {
			out = append(out, *sl.pending)
		}
	}
	return out
}

// UpdateRetracement folds the forming candle into the instrument's retracement state.
func (s *Session) UpdateRetracement(symbol string, c signal.Candle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Update(symbol, c)
}

// Retraced reports the instrument's retracement flag.
func (s *Session) Retraced(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.HasRetraced(symbol)
}

// Arm moves an Idle instrument to Armed holding sig and counts it on the scoreboard.
func (s *Session) Arm(sig signal.Signal) (signal.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[sig.Symbol]
	if !ok {
		return signal.Stats{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, sig.Symbol)
	}
	if sl.phase != PhaseIdle || sl.pending != nil {
		return signal.Stats{}, fmt.Errorf("%w: %s", ErrAlreadyArmed, sig.Symbol)
	}
	armed := sig
	sl.pending = &armed
	sl.phase = PhaseArmed
	return s.board.RecordArmed(sig), nil
}

// BeginRollover forces every instrument into Evaluated, clears all retracement flags and
// returns the signals awaiting a score.
func (s *Session) BeginRollover() []signal.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.slots {
		sl.phase = PhaseEvaluated
	}
	s.tracker.ResetAll()
	return s.pendingLocked()
}

// Complete scores the instrument's pending signal against exit, records the outcome, deletes the
// signal and resets the instrument's retracement state.
func (s *Session) Complete(symbol string, exit float64, at time.Time) (signal.Outcome, signal.Stats, error) {
	s.mu.Lock()
	sl, ok := s.slots[symbol]
	if !ok || sl.pending == nil {
		s.mu.Unlock()
		return signal.Outcome{}, signal.Stats{}, fmt.Errorf("%w: %s", ErrNotArmed, symbol)
	}
	sig := *sl.pending
	sl.pending = nil
	sl.phase = PhaseIdle
	s.tracker.Reset(symbol)
	s.mu.Unlock()

	out := signal.Outcome{
		Signal:      sig,
		ExitPrice:   exit,
		Success:     paper.Judge(sig.Direction, sig.EntryPrice, exit),
		EvaluatedAt: at,
	}
	return out, s.board.RecordOutcome(out), nil
}

// Defer keeps an unscored signal armed until the next rollover.
func (s *Session) Defer(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[symbol]
	if !ok || sl.pending == nil {
		return fmt.Errorf("%w: %s", ErrNotArmed, symbol)
	}
	sl.phase = PhaseArmed
	return nil
}

// FinishRollover returns instruments left in Evaluated to Idle.
func (s *Session) FinishRollover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.slots {
		if sl.phase == PhaseEvaluated && sl.pending == nil {
			sl.phase = PhaseIdle
		}
	}
}

// Stats returns the aggregate counters.
func (s *Session) Stats() signal.Stats { return s.board.Snapshot() }

// InstrumentState is one row of a session snapshot.
type InstrumentState struct {
	Symbol      string                    `json:"symbol"`
	Phase       Phase                     `json:"phase"`
	Pending     *signal.Signal            `json:"pending,omitempty"`
	Retracement strategy.RetracementState `json:"retracement"`
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Stats       signal.Stats      `json:"stats"`
	Instruments []InstrumentState `json:"instruments"`
}

// Snapshot copies the session state in processing order.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	rows := make([]InstrumentState, 0, len(s.symbols))
	for _, sym := range s.symbols {
		sl := s.slots[sym]
		row := InstrumentState{Symbol: sym, Phase: sl.phase, Retracement: s.tracker.State(sym)}
		if sl.pending != nil {
			p := *sl.pending
			row.Pending = &p
		}
		rows = append(rows, row)
	}
	s.mu.RUnlock()
	return Snapshot{Stats: s.board.Snapshot(), Instruments: rows}
}
