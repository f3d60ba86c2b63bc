// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PingsIngested counts accepted location pings
	PingsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crowdwatch_pings_ingested_total",
			Help: "Total number of location pings accepted",
		},
	)

	// DetectionsEvaluated counts detection batches run through the rule engine
	DetectionsEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crowdwatch_detections_evaluated_total",
			Help: "Total number of detection batches evaluated",
		},
	)

	// AlertsFired counts alerts emitted by the rule engine, by severity
	AlertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdwatch_alerts_fired_total",
			Help: "Total number of alerts fired by the rule engine",
		},
		[]string{"severity"},
	)

	// AlertsSuppressed counts alerts swallowed by rule cooldowns
	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crowdwatch_alerts_suppressed_total",
			Help: "Total number of alerts suppressed by cooldown",
		},
	)

	// BroadcastsSent counts messages handed to subscriber send buffers
	BroadcastsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdwatch_broadcasts_sent_total",
			Help: "Total number of messages delivered to subscriber buffers",
		},
		[]string{"channel"},
	)

	// BroadcastsDropped counts messages dropped on full subscriber buffers
	BroadcastsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdwatch_broadcasts_dropped_total",
			Help: "Total number of messages dropped due to slow subscribers",
		},
		[]string{"channel"},
	)

	// Subscribers tracks currently connected subscribers
	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crowdwatch_subscribers",
			Help: "Number of currently connected event subscribers",
		},
	)

	// PredictorCalls counts external predictor calls by endpoint and the
	// freshness of the result served to the caller
	PredictorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdwatch_predictor_calls_total",
			Help: "Total number of predictor calls by endpoint and result freshness",
		},
		[]string{"endpoint", "freshness"},
	)

	// PredictorLatency tracks external predictor round-trip time
	PredictorLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crowdwatch_predictor_latency_seconds",
			Help:    "External predictor call latency in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 1.5, 2, 3},
		},
		[]string{"endpoint"},
	)

	// WindowSamples tracks retained samples per event window after compaction
	WindowSamples = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crowdwatch_window_samples",
			Help: "Location samples currently retained per event window",
		},
		[]string{"event_id"},
	)
)
