// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Universe metrics
	UniverseRefreshes   prometheus.Counter
	TradersEvaluated    *prometheus.CounterVec
	UniverseEligible    *prometheus.GaugeVec
	UniverseRefreshTime prometheus.Histogram

	// Signal metrics
	TradeEventsProcessed *prometheus.CounterVec
	SignalsEmitted       *prometheus.CounterVec
	SignalsExecuted      prometheus.Counter

	// Backtest metrics
	BacktestRunsTotal *prometheus.CounterVec
	BacktestDuration  prometheus.Histogram
	BacktestLegs      prometheus.Counter

	// Risk metrics
	RiskChecks       prometheus.Counter
	RiskTriggered    prometheus.Counter
	FollowerEquity   prometheus.Gauge
	FollowerDrawdown prometheus.Gauge
	PositionsClosed  prometheus.Counter

	// Ingestion metrics
	FillsIngested       prometheus.Counter
	FillsDropped        *prometheus.CounterVec
	VenueRequestLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg registers on prometheus.DefaultRegisterer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "smartcopy"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Universe metrics
		UniverseRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "universe",
			Name:      "refreshes_total",
			Help:      "Total number of bulk universe refreshes",
		}),
		TradersEvaluated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "universe",
			Name:      "traders_evaluated_total",
			Help:      "Total number of trader evaluations by outcome",
		}, []string{"eligible"}),
		UniverseEligible: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "universe",
			Name:      "eligible_traders",
			Help:      "Eligible traders after the last refresh by window",
		}, []string{"window_days"}),
		UniverseRefreshTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "universe",
			Name:      "refresh_duration_seconds",
			Help:      "Bulk universe refresh duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),

		// Signal metrics
		TradeEventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "trade_events_processed_total",
			Help:      "Total number of trade events ingested by result",
		}, []string{"result"}),
		SignalsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "signals_emitted_total",
			Help:      "Total number of signals emitted by side",
		}, []string{"side"}),
		SignalsExecuted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "signals_executed_total",
			Help:      "Total number of signals executed",
		}),

		// Backtest metrics
		BacktestRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		BacktestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		BacktestLegs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "legs_applied_total",
			Help:      "Total number of simulated legs applied to equity",
		}),

		// Risk metrics
		RiskChecks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "checks_total",
			Help:      "Total number of risk status checks",
		}),
		RiskTriggered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "triggered_total",
			Help:      "Total number of max drawdown breaches recorded",
		}),
		FollowerEquity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "follower_equity",
			Help:      "Follower equity at the last risk check",
		}),
		FollowerDrawdown: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "follower_max_drawdown_pct",
			Help:      "Peak-relative max drawdown at the last risk check",
		}),
		PositionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "positions_closed_total",
			Help:      "Total number of follower positions closed",
		}),

		// Ingestion metrics
		FillsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fills_ingested_total",
			Help:      "Total number of venue fills stored as trades",
		}),
		FillsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fills_dropped_total",
			Help:      "Total number of venue fills dropped by reason",
		}, []string{"reason"}),
		VenueRequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "hyperliquid",
			Name:      "request_latency_seconds",
			Help:      "Hyperliquid info API latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"request_type"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordTradeEvent records the outcome of one ingested trade event.
func (m *Metrics) RecordTradeEvent(result string) {
	if m == nil {
		return
	}
	m.TradeEventsProcessed.WithLabelValues(result).Inc()
}

// RecordSignal records an emitted signal.
func (m *Metrics) RecordSignal(side string) {
	if m == nil {
		return
	}
	m.SignalsEmitted.WithLabelValues(side).Inc()
}

// RecordSignalExecuted records a signal execution.
func (m *Metrics) RecordSignalExecuted() {
	if m == nil {
		return
	}
	m.SignalsExecuted.Inc()
}

// RecordEvaluation records one trader evaluation.
func (m *Metrics) RecordEvaluation(eligible bool) {
	if m == nil {
		return
	}
	label := "false"
	if eligible {
		label = "true"
	}
	m.TradersEvaluated.WithLabelValues(label).Inc()
}

// RecordUniverseRefresh records a bulk refresh.
func (m *Metrics) RecordUniverseRefresh(windowDays string, eligible int, seconds float64) {
	if m == nil {
		return
	}
	m.UniverseRefreshes.Inc()
	m.UniverseEligible.WithLabelValues(windowDays).Set(float64(eligible))
	m.UniverseRefreshTime.Observe(seconds)
}

// RecordBacktest records a backtest run.
func (m *Metrics) RecordBacktest(status string, legs int, seconds float64) {
	if m == nil {
		return
	}
	m.BacktestRunsTotal.WithLabelValues(status).Inc()
	m.BacktestDuration.Observe(seconds)
	m.BacktestLegs.Add(float64(legs))
}

// RecordRiskCheck records a risk status computation.
func (m *Metrics) RecordRiskCheck(equity, drawdownPct float64, triggered bool) {
	if m == nil {
		return
	}
	m.RiskChecks.Inc()
	m.FollowerEquity.Set(equity)
	m.FollowerDrawdown.Set(drawdownPct)
	if triggered {
		m.RiskTriggered.Inc()
	}
}

// RecordPositionsClosed records force-closed follower positions.
func (m *Metrics) RecordPositionsClosed(n int) {
	if m == nil {
		return
	}
	m.PositionsClosed.Add(float64(n))
}

// RecordFills records stored and dropped venue fills.
func (m *Metrics) RecordFills(stored int, dropped map[string]int) {
	if m == nil {
		return
	}
	m.FillsIngested.Add(float64(stored))
	for reason, n := range dropped {
		m.FillsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordVenueRequest records a venue API call latency.
func (m *Metrics) RecordVenueRequest(requestType string, seconds float64) {
	if m == nil {
		return
	}
	m.VenueRequestLatency.WithLabelValues(requestType).Observe(seconds)
}
