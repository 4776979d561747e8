package paper

import (
	"sync"

	"levelbot-go/internal/signal"
)

// Ledger keeps the most recent outcomes in memory for the status API.
type Ledger struct {
	mu       sync.Mutex
	capacity int
	outcomes []signal.Outcome
}

// NewLedger creates a ledger retaining at most capacity outcomes; zero or less keeps everything.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{capacity: capacity, outcomes: make([]signal.Outcome, 0, capacity)}
}

// Record appends an outcome, evicting the oldest once full.
func (l *Ledger) Record(out signal.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.capacity > 0 && len(l.outcomes) == l.capacity {
		copy(l.outcomes, l.outcomes[1:])
		l.outcomes = l.outcomes[:len(l.outcomes)-1]
	}
	l.outcomes = append(l.outcomes, out)
}

// Snapshot returns a copy of the recorded outcomes, oldest first.
func (l *Ledger) Snapshot() []signal.Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]signal.Outcome, len(l.outcomes))
	copy(out, l.outcomes)
	return out
}
