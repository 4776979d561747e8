// Package paper scores armed signals against later prices and keeps the running tallies.
package paper

import (
	"sort"
	"sync"

	"levelbot-go/internal/signal"
)

// OutcomeRecorder captures scored outcomes for later inspection.
type OutcomeRecorder interface {
	Record(signal.Outcome)
}

// Judge reports whether a signal armed at entry was right once price reached exit.
// Unchanged prices count as failures for both directions.
func Judge(dir signal.Direction, entry, exit float64) bool {
	switch dir {
	case signal.Buy:
		return exit > entry
	case signal.Sell:
		return exit < entry
	default:
		return false
	}
}

// Scoreboard tracks aggregate and per-symbol results. Totals move when a signal is armed;
// successes and failures move when it is scored.
type Scoreboard struct {
	mu       sync.Mutex
	total    signal.Stats
	bySymbol map[string]signal.Stats
	sinks    []OutcomeRecorder
}

// NewScoreboard returns an empty scoreboard that forwards every outcome to sinks.
func NewScoreboard(sinks ...OutcomeRecorder) *Scoreboard {
	return &Scoreboard{
		bySymbol: make(map[string]signal.Stats),
		sinks:    sinks,
	}
}

// RecordArmed counts a freshly armed signal.
func (s *Scoreboard) RecordArmed(sig signal.Signal) signal.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total.Total++
	st := s.bySymbol[sig.Symbol]
	st.Total++
	s.bySymbol[sig.Symbol] = st
	return s.total
}

// RecordOutcome counts a scored signal and hands it to the configured recorders.
func (s *Scoreboard) RecordOutcome(out signal.Outcome) signal.Stats {
	s.mu.Lock()
	st := s.bySymbol[out.Signal.Symbol]
	if out.Success {
		s.total.Successful++
		st.Successful++
	} else {
		s.total.Failed++
		st.Failed++
	}
	s.bySymbol[out.Signal.Symbol] = st
	snapshot := s.total
	sinks := s.sinks
	s.mu.Unlock()

	for _, sink := range sinks {
		sink.Record(out)
	}
	return snapshot
}

// Snapshot returns the aggregate counters.
func (s *Scoreboard) Snapshot() signal.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// SymbolStats is one row of the per-symbol breakdown.
type SymbolStats struct {
	Symbol string `json:"symbol"`
	signal.Stats
}

// BySymbol returns per-symbol counters ordered by symbol.
func (s *Scoreboard) BySymbol() []SymbolStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SymbolStats, 0, len(s.bySymbol))
	for sym, st := range s.bySymbol {
		out = append(out, SymbolStats{Symbol: sym, Stats: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// WinRate returns successful/(successful+failed) in percent, or zero before the first outcome.
func WinRate(st signal.Stats) float64 {
	scored := st.Successful + st.Failed
	if scored == 0 {
		return 0
	}
	return float64(st.Successful) / float64(scored) * 100
}
