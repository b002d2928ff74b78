package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector holds all Prometheus metrics for Rekebisha.
// Uses a custom registry — no global state.
type MetricsCollector struct {
	Registry *prometheus.Registry

	// LLM metrics.
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	LLMTokensUsed      *prometheus.CounterVec
	LLMRetriesTotal    *prometheus.CounterVec

	// Remediation loop metrics.
	RunsTotal     *prometheus.CounterVec
	RunIterations prometheus.Histogram
	PhaseDuration *prometheus.HistogramVec
	FixesApplied  prometheus.Counter
	FixesRejected *prometheus.CounterVec
	TestsRunTotal *prometheus.CounterVec
	PylintScore   prometheus.Gauge
}

// NewMetricsCollector creates a MetricsCollector with all metrics
// registered on a custom prometheus.Registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	m := &MetricsCollector{
		Registry: reg,

		LLMRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rekebisha",
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Total LLM API requests.",
		}, []string{"provider", "model", "status"}),

		LLMRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rekebisha",
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "LLM API request duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "model"}),

		LLMTokensUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rekebisha",
			Subsystem: "llm",
			Name:      "tokens_used_total",
			Help:      "Total LLM tokens consumed.",
		}, []string{"provider", "model", "direction"}),

		LLMRetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rekebisha",
			Subsystem: "llm",
			Name:      "retries_total",
			Help:      "Total LLM call retries after transient failures.",
		}, []string{"provider"}),

		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rekebisha",
			Subsystem: "run",
			Name:      "total",
			Help:      "Total remediation runs by final status.",
		}, []string{"status"}),

		RunIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rekebisha",
			Subsystem: "run",
			Name:      "iterations",
			Help:      "Iterations consumed per remediation run.",
			Buckets:   []float64{1, 2, 3, 5, 7, 10, 15, 20},
		}),

		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rekebisha",
			Subsystem: "run",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each remediation phase in seconds.",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"phase"}),

		FixesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rekebisha",
			Subsystem: "fix",
			Name:      "applied_total",
			Help:      "Total fix blocks written to the target directory.",
		}),

		FixesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rekebisha",
			Subsystem: "fix",
			Name:      "rejected_total",
			Help:      "Total fix blocks rejected before writing.",
		}, []string{"reason"}),

		TestsRunTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rekebisha",
			Subsystem: "tests",
			Name:      "results_total",
			Help:      "Total test results observed across validation runs.",
		}, []string{"outcome"}),

		PylintScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rekebisha",
			Name:      "pylint_score",
			Help:      "Most recent average pylint score for the target.",
		}),
	}

	// Register all collectors.
	reg.MustRegister(
		m.LLMRequestsTotal,
		m.LLMRequestDuration,
		m.LLMTokensUsed,
		m.LLMRetriesTotal,
		m.RunsTotal,
		m.RunIterations,
		m.PhaseDuration,
		m.FixesApplied,
		m.FixesRejected,
		m.TestsRunTotal,
		m.PylintScore,
	)

	return m
}

// ObservePhase records the duration of one loop phase.
// Safe to call on a nil collector.
func (m *MetricsCollector) ObservePhase(phase string, start time.Time) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

// RecordRun records the outcome of one remediation run.
// Safe to call on a nil collector.
func (m *MetricsCollector) RecordRun(status string, iterations int) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunIterations.Observe(float64(iterations))
}
