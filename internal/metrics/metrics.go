package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalyze_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "legalyze_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)

	RequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "legalyze_http_requests_in_progress",
			Help: "Number of HTTP requests being served",
		},
	)

	CapabilityLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legalyze_capability_latency_seconds",
			Help:    "Latency of inference capability calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"capability", "status"},
	)

	CapabilityRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalyze_capability_retries_total",
			Help: "Retried inference capability calls",
		},
		[]string{"capability"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalyze_pipeline_runs_total",
			Help: "Pipeline runs by variant and outcome",
		},
		[]string{"mode", "outcome"},
	)

	Tripwires = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legalyze_guardrail_tripwires_total",
			Help: "Guardrail tripwires by kind",
		},
		[]string{"kind"},
	)

	NormalizerDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "legalyze_normalizer_degraded_total",
			Help: "Analysis results replaced by the degraded-mode fallback",
		},
	)

	RendererFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "legalyze_renderer_fallbacks_total",
			Help: "Friendly messages replaced by the deterministic fallback",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "legalyze_sessions_active",
			Help: "Session records held by the in-memory store",
		},
	)
)
