package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestHoursOpen(t *testing.T) {
	h := Hours{Start: 6, End: 17, Location: time.UTC}
	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 2, 5, 59, 59, 0, time.UTC), false},
		{time.Date(2026, 3, 2, 16, 59, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC), false},
		{time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC), false}, // Saturday
		{time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC), false}, // Sunday
	}
	for _, tc := range cases {
		if got := h.Open(tc.at); got != tc.want {
			t.Fatalf("Open(%s) = %v, want %v", tc.at, got, tc.want)
		}
	}

	h.AllowWeekends = true
	if !h.Open(time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected weekends allowed")
	}
}

func TestHoursUseLocation(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*3600)
	h := Hours{Start: 6, End: 17, Location: saoPaulo}
	// 08:30 UTC is 05:30 in BRT
	if h.Open(time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected closed before local start")
	}
	if !h.Open(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected open at local 06:00")
	}
}

func TestNextBoundary(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 3, 17, 0, time.UTC)
	if got := NextBoundary(at, 5*time.Minute); !got.Equal(time.Date(2026, 3, 2, 10, 5, 0, 0, time.UTC)) {
		t.Fatalf("unexpected boundary %s", got)
	}
	exact := time.Date(2026, 3, 2, 10, 5, 0, 0, time.UTC)
	if got := NextBoundary(exact, 5*time.Minute); !got.Equal(exact.Add(5 * time.Minute)) {
		t.Fatalf("a boundary instant belongs to its own period, got %s", got)
	}
}

func TestSleepIsCancellable(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sleep(ctx, clock, time.Hour) }()

	clock.BlockUntil(1)
	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("sleep ignored cancellation")
	}

}

func TestSleepUntilWakesAtDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	errCh := make(chan error, 1)
	go func() { errCh <- sleepUntil(context.Background(), clock, clock.Now().Add(time.Minute)) }()

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected wake-up without error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("sleepUntil did not wake at the deadline")
	}
}

func TestCancelledSleepReleasesClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sleep(ctx, clock, time.Hour) }()
	clock.BlockUntil(1)
	cancel()
	select {
	case <-errCh:
	case <-time.After(time.Second):
		t.Fatalf("sleep ignored cancellation")
	}

	// a fresh sleeper must be the only waiter once the cancelled one is gone
	go func() { errCh <- sleep(context.Background(), clock, time.Minute) }()
	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected wake-up without error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("second sleep never woke")
	}
}
