// Package metrics exposes Prometheus counters for batch runs:
//
//	sentinel_decisions_total{verdict,tier}  entry-gate outcomes
//	sentinel_exits_total{reason,tier}       closed trades by exit reason
//	sentinel_trade_return_pct               histogram of closed-trade returns
//	sentinel_tickers_total{status}          tickers simulated (ok|failed)
//	sentinel_last_run_timestamp_seconds     completion time of the last batch
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"InsiderSentinel/internal/model"
	"InsiderSentinel/internal/strategy"
)

// Metrics owns its own registry so tests can create as many as they like.
type Metrics struct {
	reg       *prometheus.Registry
	decisions *prometheus.CounterVec
	exits     *prometheus.CounterVec
	returns   prometheus.Histogram
	tickers   *prometheus.CounterVec
	lastRun   prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_decisions_total",
				Help: "Entry gate decisions",
			},
			[]string{"verdict", "tier"},
		),
		exits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_exits_total",
				Help: "Closed trades split by exit reason",
			},
			[]string{"reason", "tier"},
		),
		returns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_trade_return_pct",
			Help:    "Closed trade return in percent",
			Buckets: []float64{-20, -10, -5, -2, 0, 2, 5, 10, 20, 50, 100},
		}),
		tickers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_tickers_total",
				Help: "Tickers simulated",
			},
			[]string{"status"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_last_run_timestamp_seconds",
			Help: "Unix time the last batch finished",
		}),
	}
	m.reg.MustRegister(m.decisions, m.exits, m.returns, m.tickers, m.lastRun)
	m.reg.MustRegister(collectors.NewGoCollector())
	return m
}

// Decision implements simulator.Observer.
func (m *Metrics) Decision(_ string, d strategy.Decision) {
	m.decisions.WithLabelValues(string(d.Verdict), string(d.Tier.Name)).Inc()
}

// Exit implements simulator.Observer.
func (m *Metrics) Exit(_ string, t model.ClosedTrade) {
	m.exits.WithLabelValues(string(t.Reason), string(t.Tier)).Inc()
	m.returns.Observe(t.ReturnPct)
}

// ObserveRun records ticker outcomes of a finished batch.
func (m *Metrics) ObserveRun(run *model.RunSummary) {
	m.tickers.WithLabelValues("ok").Add(float64(run.Tickers - run.Failed))
	m.tickers.WithLabelValues("failed").Add(float64(run.Failed))
	m.lastRun.Set(float64(run.FinishedAt.Unix()))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
