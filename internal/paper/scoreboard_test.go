package paper

import (
	"testing"

	"levelbot-go/internal/signal"
)

func TestJudge(t *testing.T) {
	cases := []struct {
		dir   signal.Direction
		entry float64
		exit  float64
		want  bool
	}{
		{signal.Buy, 1.10000, 1.10050, true},
		{signal.Buy, 1.10000, 1.09950, false},
		{signal.Sell, 1.10000, 1.09950, true},
		{signal.Sell, 1.10000, 1.10050, false},
		{signal.Buy, 1.10000, 1.10000, false},
		{signal.Sell, 1.10000, 1.10000, false},
		{signal.Direction("hold"), 1.0, 2.0, false},
	}
	for _, tc := range cases {
		if got := Judge(tc.dir, tc.entry, tc.exit); got != tc.want {
			t.Fatalf("Judge(%s, %v, %v) = %v, want %v", tc.dir, tc.entry, tc.exit, got, tc.want)
		}
	}
}

func TestScoreboardCounts(t *testing.T) {
	ledger := NewLedger(10)
	board := NewScoreboard(ledger)

	eur := signal.Signal{ID: "a", Symbol: "EURUSD", Direction: signal.Buy, EntryPrice: 1.1}
	jpy := signal.Signal{ID: "b", Symbol: "USDJPY", Direction: signal.Sell, EntryPrice: 150}
	board.RecordArmed(eur)
	if got := board.RecordArmed(jpy); got.Total != 2 || got.Successful+got.Failed != 0 {
		t.Fatalf("arming only moves totals, got %+v", got)
	}

	board.RecordOutcome(signal.Outcome{Signal: eur, ExitPrice: 1.1005, Success: true})
	got := board.RecordOutcome(signal.Outcome{Signal: jpy, ExitPrice: 150.2, Success: false})
	if got != (signal.Stats{Total: 2, Successful: 1, Failed: 1}) {
		t.Fatalf("unexpected stats %+v", got)
	}
	if board.Snapshot() != got {
		t.Fatalf("snapshot should match last returned stats")
	}

	rows := board.BySymbol()
	if len(rows) != 2 || rows[0].Symbol != "EURUSD" || rows[0].Successful != 1 || rows[1].Failed != 1 {
		t.Fatalf("unexpected breakdown %+v", rows)
	}
	if len(ledger.Snapshot()) != 2 {
		t.Fatalf("expected outcomes forwarded to the ledger")
	}
}

func TestWinRate(t *testing.T) {
	if WinRate(signal.Stats{Total: 3}) != 0 {
		t.Fatalf("expected zero before any outcome")
	}
	if got := WinRate(signal.Stats{Total: 4, Successful: 3, Failed: 1}); got != 75 {
		t.Fatalf("expected 75, got %v", got)
	}
}
