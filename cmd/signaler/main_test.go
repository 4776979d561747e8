package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"levelbot-go/internal/exchange"
)

func writeConfig(t *testing.T, dir, feedProvider string, symbols ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("app:\n  log_level: error\n  http_addr: \"127.0.0.1:0\"\n")
	b.WriteString("symbols:\n")
	for _, sym := range symbols {
		b.WriteString("  - " + sym + "\n")
	}
	b.WriteString(`min_distance_pips: 5
min_retracement_percent: 0.1
analysis_window_seconds: 120
trading_hours:
  start_hour: 6
  end_hour: 17
  timezone: UTC
notifier:
  provider: log
  endpoint: ""
  destination: ""
feed:
  provider: ` + feedProvider + `
journal:
  path: ` + filepath.Join(dir, "journal", "outcomes.jsonl") + "\n")
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunReturnsLoadError(t *testing.T) {
	err := run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected load config error, got %v", err)
	}
}

func TestRunRejectsUnmappedVenueSymbols(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "binance", "EURUSD", "GBPJPY")
	err := run(context.Background(), []string{"-config", path}, &bytes.Buffer{})
	if !errors.Is(err, exchange.ErrUnmappedSymbol) {
		t.Fatalf("expected ErrUnmappedSymbol, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "journal")); !os.IsNotExist(statErr) {
		t.Fatalf("journal should not be opened before the feed check, stat err %v", statErr)
	}
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "stub", "EURUSD", "GBPJPY")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if err := run(ctx, []string{"-config", path}, &out); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if out.Len() == 0 {
		t.Fatalf("expected stats rendered on shutdown")
	}
	if _, err := os.Stat(filepath.Join(dir, "journal", "outcomes.jsonl")); err != nil {
		t.Fatalf("expected journal file, got %v", err)
	}
}
