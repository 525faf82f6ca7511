// Package metrics exposes the engine's Prometheus surface: snapshot
// ingestion counts, scoring latency, opportunity-table size, and signal
// emission counters. The registry is a struct of pre-registered vectors
// plus small Start/Stop timer helpers and a promhttp.Handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the engine and venue adapters record.
type Registry struct {
	SnapshotsIngested *prometheus.CounterVec
	SnapshotsInvalid  *prometheus.CounterVec

	ScoringDuration prometheus.Histogram
	ScoringPanics   prometheus.Counter

	OpportunityTableSize prometheus.Gauge
	ScoreWorkQueueDepth  prometheus.Gauge

	SignalsEmitted   *prometheus.CounterVec
	SignalsSuppressed *prometheus.CounterVec

	VenueReconnects *prometheus.CounterVec
}

// NewRegistry constructs and registers every metric with reg.
func NewRegistry(reg *prometheus.Registry) *Registry {
	m := &Registry{
		SnapshotsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundarb_snapshots_ingested_total",
				Help: "Total valid snapshots accepted into the SnapshotTable, by venue.",
			},
			[]string{"venue"},
		),
		SnapshotsInvalid: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundarb_snapshots_invalid_total",
				Help: "Total snapshots dropped for failing validity checks, by venue.",
			},
			[]string{"venue"},
		),
		ScoringDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fundarb_scoring_duration_seconds",
				Help:    "Duration of one symbol's scoring pass.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),
		ScoringPanics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fundarb_scoring_panics_total",
				Help: "Total scorer panics recovered without terminating the engine.",
			},
		),
		OpportunityTableSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fundarb_opportunity_table_size",
				Help: "Current number of live entries in the OpportunityTable.",
			},
		),
		ScoreWorkQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fundarb_score_work_queue_depth",
				Help: "Current depth of the engine's scoring dispatch channel.",
			},
		),
		SignalsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundarb_signals_emitted_total",
				Help: "Total TradeSignal values published to the executor, by symbol.",
			},
			[]string{"symbol"},
		),
		SignalsSuppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundarb_signals_suppressed_total",
				Help: "Total signal emissions suppressed by the cooldown gate, by symbol.",
			},
			[]string{"symbol"},
		),
		VenueReconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundarb_venue_reconnects_total",
				Help: "Total reconnect attempts by venue adapters after a stream error.",
			},
			[]string{"venue"},
		),
	}

	reg.MustRegister(
		m.SnapshotsIngested,
		m.SnapshotsInvalid,
		m.ScoringDuration,
		m.ScoringPanics,
		m.OpportunityTableSize,
		m.ScoreWorkQueueDepth,
		m.SignalsEmitted,
		m.SignalsSuppressed,
		m.VenueReconnects,
	)
	return m
}

// Handler returns an HTTP handler serving reg's metrics in Prometheus
// exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Timer tracks a single scoring pass's wall-clock duration.
type Timer struct {
	m     *Registry
	start time.Time
}

// StartScoringTimer begins timing a scoring pass.
func (m *Registry) StartScoringTimer() *Timer {
	return &Timer{m: m, start: time.Now()}
}

// Stop records the elapsed duration against ScoringDuration.
func (t *Timer) Stop() {
	t.m.ScoringDuration.Observe(time.Since(t.start).Seconds())
}
