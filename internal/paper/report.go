package paper

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"levelbot-go/internal/signal"
)

// RenderStats draws the aggregate and per-symbol results as a text table.
func RenderStats(total signal.Stats, rows []SymbolStats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Symbol", "Signals", "Success", "Failure", "Win %"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row.Symbol, row.Total, row.Successful, row.Failed, fmt.Sprintf("%.1f", WinRate(row.Stats))})
	}
	tw.AppendFooter(table.Row{"Total", total.Total, total.Successful, total.Failed, fmt.Sprintf("%.1f", WinRate(total))})
	return tw.Render()
}
