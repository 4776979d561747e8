package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CandlesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "candles_fetched_total", Help: "Candles returned by the market feed"},
		[]string{"symbol", "period"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Signals armed"},
		[]string{"symbol", "direction"},
	)
	OutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "outcomes_total", Help: "Signals scored at rollover"},
		[]string{"symbol", "result"},
	)
	NewsBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "news_blocked_total", Help: "Entries suppressed by a news window"},
		[]string{"symbol"},
	)
	NotificationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "notifications_failed_total", Help: "Messages the notifier could not deliver"},
		[]string{"provider"},
	)
	PendingSignals = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "pending_signals", Help: "Signals armed and awaiting rollover"},
	)
)

func init() {
	prometheus.MustRegister(CandlesFetched, SignalsTotal, OutcomesTotal, NewsBlocked, NotificationsFailed, PendingSignals)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
