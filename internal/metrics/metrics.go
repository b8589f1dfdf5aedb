// Package metrics exposes Prometheus instrumentation for the monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all registered collectors.
type Metrics struct {
	PollCycles     prometheus.Counter
	PollErrors     prometheus.Counter
	SignalsTotal   *prometheus.CounterVec
	SnapshotsTotal prometheus.Counter
	MarketOpen     prometheus.Gauge
	OpenPositions  prometheus.Gauge
	WatchlistSize  prometheus.Gauge
}

// New creates and registers the metric set on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_poll_cycles_total",
			Help: "Completed polling cycles.",
		}),
		PollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_poll_errors_total",
			Help: "Polling cycles that encountered at least one error.",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_signals_total",
			Help: "Generated signals by side and type.",
		}, []string{"side", "type"}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_snapshots_total",
			Help: "Stock data snapshots assembled.",
		}),
		MarketOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_market_open",
			Help: "1 while a trading session is open, 0 otherwise.",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_open_positions",
			Help: "Number of open positions.",
		}),
		WatchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_watchlist_size",
			Help: "Number of watched codes.",
		}),
	}

	reg.MustRegister(
		m.PollCycles,
		m.PollErrors,
		m.SignalsTotal,
		m.SnapshotsTotal,
		m.MarketOpen,
		m.OpenPositions,
		m.WatchlistSize,
	)
	return m
}
