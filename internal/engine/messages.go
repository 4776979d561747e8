package engine

import (
	"fmt"
	"strings"
	"time"

	"levelbot-go/internal/signal"
	"levelbot-go/internal/strategy"
)

// SignalMessage renders an armed signal for the chat notifier.
func SignalMessage(sig signal.Signal, loc *time.Location) string {
	at := sig.ArmedAt
	if loc != nil {
		at = at.In(loc)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Time:</b> <code>%s 🕐</code>\n", at.Format("15:04:05"))
	fmt.Fprintf(&b, "<b>Symbol:</b> <code>%s 📊</code>\n", sig.Symbol)
	fmt.Fprintf(&b, "<b>Signal:</b> <code>%s</code>\n", sig.Direction.Arrow())
	fmt.Fprintf(&b, "<b>Price:</b> <code>%s 💰</code>", strategy.FormatPrice(sig.Symbol, sig.EntryPrice))
	return b.String()
}

// OutcomeMessage renders a scored signal together with the running totals.
func OutcomeMessage(out signal.Outcome, stats signal.Stats) string {
	result := "Failed ❌"
	if out.Success {
		result = "Successful ✅"
	}
	sym := out.Signal.Symbol
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Symbol:</b> <code>%s 📊</code>\n", sym)
	fmt.Fprintf(&b, "<b>Price:</b> <code>%s 💰</code>\n", strategy.FormatPrice(sym, out.ExitPrice))
	fmt.Fprintf(&b, "<b>Result:</b> <code>%s</code>\n\n", result)
	b.WriteString("<b>History:</b>\n")
	fmt.Fprintf(&b, "<b>Total:</b> <code>%d</code>\n", stats.Total)
	fmt.Fprintf(&b, "<b>Successful:</b> <code>%d ✅</code>\n", stats.Successful)
	fmt.Fprintf(&b, "<b>Failure:</b> <code>%d ❌</code>", stats.Failed)
	return b.String()
}
