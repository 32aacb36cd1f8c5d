package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novaquery_questions_total",
			Help: "Total number of questions by classification route.",
		},
		[]string{"route"},
	)
	pipelineFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "novaquery_pipeline_failures_total",
			Help: "Total number of failed business questions by error kind.",
		},
		[]string{"kind"},
	)
	generationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "novaquery_generation_duration_seconds",
			Help:    "Latency of generative backend calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
	executionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "novaquery_execution_duration_seconds",
			Help:    "Latency of generated SQL execution against the sales store.",
			Buckets: prometheus.DefBuckets,
		},
	)
	undeclaredAliasTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "novaquery_undeclared_alias_total",
			Help: "Total number of generated statements referencing undeclared table aliases.",
		},
	)
	temporalFilterMismatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "novaquery_temporal_filter_mismatch_total",
			Help: "Total number of generated statements missing a resolved date filter.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		pipelineFailuresTotal,
		generationDurationSeconds,
		executionDurationSeconds,
		undeclaredAliasTotal,
		temporalFilterMismatchTotal,
	)
}

func ObserveQuestion(route string) {
	questionsTotal.WithLabelValues(route).Inc()
}

func ObservePipelineFailure(kind string) {
	pipelineFailuresTotal.WithLabelValues(kind).Inc()
}

func ObserveGeneration(elapsed time.Duration) {
	generationDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveExecution(elapsed time.Duration) {
	executionDurationSeconds.Observe(elapsed.Seconds())
}

func IncrementUndeclaredAlias() {
	undeclaredAliasTotal.Inc()
}

func IncrementTemporalFilterMismatch() {
	temporalFilterMismatchTotal.Inc()
}
