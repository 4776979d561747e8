package engine

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"levelbot-go/internal/strategy"
)

// Hours is the trading session in which instruments are evaluated.
type Hours struct {
	Start         int
	End           int
	Location      *time.Location
	AllowWeekends bool
}

// Open reports whether t falls inside the session: start <= hour < end in the session's
// location, on weekdays unless weekends are allowed.
func (h Hours) Open(t time.Time) bool {
	if h.Location != nil {
		t = t.In(h.Location)
	}
	if !h.AllowWeekends {
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return false
		}
	}
	hour := t.Hour()
	return h.Start <= hour && hour < h.End
}

// NextBoundary returns the start of the period following the one containing t.
func NextBoundary(t time.Time, period time.Duration) time.Time {
	return strategy.FrameStart(t, period).Add(period)
}

// sleep waits for d on clock, returning early with ctx's error on cancellation.
func sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// sleepUntil waits until the clock reaches at.
func sleepUntil(ctx context.Context, clock clockwork.Clock, at time.Time) error {
	return sleep(ctx, clock, at.Sub(clock.Now()))
}
