package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"levelbot-go/internal/signal"
	"levelbot-go/internal/strategy"
)

func TestAnalyzeOnceArmsSingleBuy(t *testing.T) {
	h := newHarness([]string{"EURUSD"}, nil)
	h.feed.set("EURUSD", 5*time.Minute, buySeries())
	ctx := context.Background()

	armed := h.engine.AnalyzeOnce(ctx)
	if len(armed) != 1 {
		t.Fatalf("expected one signal, got %s", describe(armed))
	}
	sig := armed[0]
	if sig.Direction != signal.Buy || sig.EntryPrice != 1.0 || sig.Support != 1.0 || sig.Resistance != 1.01 {
		t.Fatalf("unexpected signal %+v", sig)
	}
	if sig.ID == "" || !sig.ArmedAt.Equal(t0) {
		t.Fatalf("expected id and arming time, got %+v", sig)
	}
	if h.engine.Session().Phase("EURUSD") != PhaseArmed {
		t.Fatalf("expected armed phase")
	}

	// next sub-cycle in the same period must not duplicate
	h.clock.Advance(time.Second)
	if again := h.engine.AnalyzeOnce(ctx); len(again) != 0 {
		t.Fatalf("expected no duplicate, got %s", describe(again))
	}
	msgs := h.notifier.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "EURUSD") || !strings.Contains(msgs[0], "1.00000") {
		t.Fatalf("expected one signal message, got %q", msgs)
	}
	if got := h.engine.Session().Stats(); got.Total != 1 {
		t.Fatalf("expected total 1, got %+v", got)
	}
}

func TestAnalyzeOnceRequiresBothLevels(t *testing.T) {
	h := newHarness([]string{"TEST"}, nil)
	candles := background(80)
	candles[5].Low, candles[40].Low = 1.0, 1.0
	candles[79] = touch
	h.feed.set("TEST", 5*time.Minute, candles)

	if armed := h.engine.AnalyzeOnce(context.Background()); len(armed) != 0 {
		t.Fatalf("expected no signal without resistance, got %s", describe(armed))
	}
	if len(h.notifier.messages()) != 0 {
		t.Fatalf("expected no notification")
	}
	if h.engine.Session().Phase("TEST") != PhaseIdle {
		t.Fatalf("expected idle phase")
	}
}

func TestAnalyzeOnceIsolatesInstrumentFailures(t *testing.T) {
	h := newHarness([]string{"SHORT", "DOWN", "EURUSD"}, nil)
	h.feed.set("SHORT", 5*time.Minute, background(30))
	h.feed.fail("DOWN", errVenueDown)
	h.feed.set("EURUSD", 5*time.Minute, buySeries())

	armed := h.engine.AnalyzeOnce(context.Background())
	if len(armed) != 1 || armed[0].Symbol != "EURUSD" {
		t.Fatalf("expected only EURUSD armed, got %s", describe(armed))
	}
}

func TestAnalyzeOnceRejectsLateInPeriod(t *testing.T) {
	h := newHarness([]string{"EURUSD"}, nil)
	h.feed.set("EURUSD", 5*time.Minute, buySeries())
	h.clock.Advance(90 * time.Second) // 10:02:30

	if armed := h.engine.AnalyzeOnce(context.Background()); len(armed) != 0 {
		t.Fatalf("expected no signal after the early window, got %s", describe(armed))
	}
}

func TestAnalyzeOnceHonoursNewsGate(t *testing.T) {
	h := newHarness([]string{"EURUSD"}, stubGate{blocked: true})
	h.feed.set("EURUSD", 5*time.Minute, buySeries())

	sig, reason, err := h.engine.processInstrument(context.Background(), "EURUSD")
	if err != nil || sig != nil {
		t.Fatalf("expected a rejection, got %+v %v", sig, err)
	}
	if reason != "news window active" {
		t.Fatalf("unexpected reason %q", reason)
	}
	if len(h.notifier.messages()) != 0 {
		t.Fatalf("blocked signals must not be notified")
	}
}

func TestAnalyzeOnceStretchGate(t *testing.T) {
	// 10:11 is early in its 5m period but in the last third of the 15m frame
	at := time.Date(2026, 3, 2, 10, 11, 0, 0, time.UTC)

	loose := []signal.Candle{candle(1.0, 1.0100, 0.9900, 1.0010), candle(1.0, 1.0, 1.0, 1.0)}
	h := newHarness([]string{"EURUSD"}, nil)
	h.clock.Advance(at.Sub(t0))
	h.feed.set("EURUSD", 5*time.Minute, buySeries())
	h.feed.set("EURUSD", 15*time.Minute, loose)
	if armed := h.engine.AnalyzeOnce(context.Background()); len(armed) != 0 {
		t.Fatalf("expected the unstretched 15m candle to block, got %s", describe(armed))
	}

	stretched := []signal.Candle{candle(1.0, 1.0110, 0.9990, 1.0100), candle(1.0, 1.0, 1.0, 1.0)}
	h.feed.set("EURUSD", 15*time.Minute, stretched)
	if armed := h.engine.AnalyzeOnce(context.Background()); len(armed) != 1 {
		t.Fatalf("expected a signal once the 15m candle is stretched, got %s", describe(armed))
	}
}

func TestRolloverScoresPendingSignals(t *testing.T) {
	cases := []struct {
		name    string
		exit    float64
		success bool
	}{
		{"higher close", 1.0005, true},
		{"lower close", 0.9995, false},
		{"unchanged", 1.0, false},
	}
	for _, tc := range cases {
		h := newHarness([]string{"EURUSD"}, nil)
		h.feed.set("EURUSD", 5*time.Minute, buySeries())
		ctx := context.Background()
		if armed := h.engine.AnalyzeOnce(ctx); len(armed) != 1 {
			t.Fatalf("%s: expected a signal to score", tc.name)
		}

		h.clock.Advance(4 * time.Minute)
		h.feed.set("EURUSD", 5*time.Minute, closedAt(tc.exit))
		outcomes := h.engine.Rollover(ctx)
		if len(outcomes) != 1 {
			t.Fatalf("%s: expected one outcome, got %d", tc.name, len(outcomes))
		}
		out := outcomes[0]
		if out.Success != tc.success || out.ExitPrice != tc.exit {
			t.Fatalf("%s: unexpected outcome %+v", tc.name, out)
		}

		sess := h.engine.Session()
		if sess.Phase("EURUSD") != PhaseIdle {
			t.Fatalf("%s: expected idle after rollover", tc.name)
		}
		if _, ok := sess.Pending("EURUSD"); ok {
			t.Fatalf("%s: pending signal must be deleted", tc.name)
		}
		if sess.Retraced("EURUSD") {
			t.Fatalf("%s: retracement must be reset", tc.name)
		}
		want := signal.Stats{Total: 1, Successful: 0, Failed: 1}
		if tc.success {
			want = signal.Stats{Total: 1, Successful: 1, Failed: 0}
		}
		if sess.Stats() != want {
			t.Fatalf("%s: expected %+v, got %+v", tc.name, want, sess.Stats())
		}
		msgs := h.notifier.messages()
		if len(msgs) != 2 || !strings.Contains(msgs[1], "<b>Total:</b> <code>1</code>") {
			t.Fatalf("%s: expected outcome message, got %q", tc.name, msgs)
		}
		if len(h.ledger.Snapshot()) != 1 {
			t.Fatalf("%s: expected outcome recorded in the ledger", tc.name)
		}
	}
}

func TestRolloverDefersWhenPriceUnavailable(t *testing.T) {
	h := newHarness([]string{"EURUSD"}, nil)
	h.feed.set("EURUSD", 5*time.Minute, buySeries())
	ctx := context.Background()
	h.engine.AnalyzeOnce(ctx)

	h.feed.fail("EURUSD", errVenueDown)
	if outcomes := h.engine.Rollover(ctx); len(outcomes) != 0 {
		t.Fatalf("expected no outcome without a price")
	}
	if h.engine.Session().Phase("EURUSD") != PhaseArmed {
		t.Fatalf("expected signal kept armed")
	}
	if armed := h.engine.AnalyzeOnce(ctx); len(armed) != 0 {
		t.Fatalf("a deferred signal still blocks new arming")
	}

	h.feed.fail("EURUSD", nil)
	h.feed.set("EURUSD", 5*time.Minute, closedAt(1.0005))
	if outcomes := h.engine.Rollover(ctx); len(outcomes) != 1 || !outcomes[0].Success {
		t.Fatalf("expected deferred signal scored on the next rollover, got %+v", outcomes)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRunArmsAndScoresAcrossRollover(t *testing.T) {
	h := newHarness([]string{"EURUSD"}, nil)
	h.feed.set("EURUSD", 5*time.Minute, buySeries())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- h.engine.Run(ctx) }()

	h.clock.BlockUntil(1)
	if h.engine.Session().Phase("EURUSD") != PhaseArmed {
		t.Fatalf("expected a signal armed in the first pass")
	}

	h.feed.set("EURUSD", 5*time.Minute, closedAt(1.0005))
	h.clock.Advance(5 * time.Minute)
	waitFor(t, "outcome", func() bool { return h.engine.Session().Stats().Successful == 1 })

	h.clock.BlockUntil(1)
	if got := len(h.notifier.messages()); got != 2 {
		t.Fatalf("expected signal and outcome messages, got %d", got)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("unexpected run error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("engine did not stop after cancel")
	}
}

func TestRunIdlesOutsideTradingHours(t *testing.T) {
	h := newHarness([]string{"EURUSD"}, nil)
	h.feed.set("EURUSD", 5*time.Minute, buySeries())
	h.clock.Advance(5 * 24 * time.Hour) // Saturday

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.engine.Run(ctx) }()

	h.clock.BlockUntil(1)
	if calls := h.feed.callCount(); calls != 0 {
		t.Fatalf("expected no fetches outside trading hours, got %d", calls)
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected run error: %v", err)
	}
}

func TestEntryWindowIsIndependentOfAnalysisWindow(t *testing.T) {
	h := newHarness([]string{"EURUSD"}, nil)
	h.engine.opts.AnalysisWindow = 3 * time.Minute
	h.feed.set("EURUSD", 5*time.Minute, buySeries())
	h.clock.Advance(90 * time.Second) // 10:02:30, inside the analysis window

	sig, reason, err := h.engine.processInstrument(context.Background(), "EURUSD")
	if err != nil || sig != nil {
		t.Fatalf("expected a rejection, got %+v %v", sig, err)
	}
	if reason != strategy.RejectLateInPeriod {
		t.Fatalf("expected late-in-period rejection, got %q", reason)
	}
}
