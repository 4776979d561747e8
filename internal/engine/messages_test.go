package engine

import (
	"strings"
	"testing"
	"time"

	"levelbot-go/internal/signal"
)

func TestSignalMessage(t *testing.T) {
	sig := signal.Signal{
		Symbol:     "USDJPY",
		Direction:  signal.Sell,
		EntryPrice: 150.1234,
		ArmedAt:    time.Date(2026, 3, 2, 13, 1, 5, 0, time.UTC),
	}
	msg := SignalMessage(sig, time.FixedZone("BRT", -3*3600))
	for _, want := range []string{"<code>10:01:05", "<code>USDJPY", "sell ⬇️", "<code>150.123 "} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestOutcomeMessage(t *testing.T) {
	out := signal.Outcome{
		Signal:    signal.Signal{Symbol: "EURUSD", Direction: signal.Buy, EntryPrice: 1.1},
		ExitPrice: 1.10050,
		Success:   true,
	}
	msg := OutcomeMessage(out, signal.Stats{Total: 3, Successful: 2, Failed: 1})
	for _, want := range []string{"1.10050", "Successful ✅</code>", "<b>Total:</b> <code>3</code>", "<b>Failure:</b> <code>1 ❌</code>"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
	out.Success = false
	if !strings.Contains(OutcomeMessage(out, signal.Stats{}), "Failed ❌") {
		t.Fatalf("expected failure label")
	}
}
