package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bizlookup"

// Completion and lookup Prometheus metrics.
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Total number of completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"provider", "model"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	CompletionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_errors_total",
			Help:      "Total completion errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	CompletionThrottledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_throttled_total",
			Help:      "Completion calls refused by the local rate limiter",
		},
		[]string{"provider"},
	)

	CompletionBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "completion_budget_tokens_remaining",
			Help:      "Remaining completion token budget (-1 = unlimited)",
		},
		[]string{"provider", "period"},
	)

	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Business lookups by outcome (ok or failure category)",
		},
		[]string{"outcome"},
	)

	ExtractionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_total",
			Help:      "Record extraction outcomes",
		},
		[]string{"outcome"},
	)

	ExtractedRecords = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extracted_records",
			Help:      "Number of business records extracted per lookup",
			Buckets:   []float64{0, 1, 5, 10, 15, 20, 30, 50},
		},
	)
)

var registerCompletionOnce sync.Once

// RegisterCompletionMetrics registers completion and lookup metrics. Safe to call more than once.
func RegisterCompletionMetrics() {
	registerCompletionOnce.Do(func() {
		prometheus.MustRegister(CompletionRequestsTotal)
		prometheus.MustRegister(CompletionRequestDuration)
		prometheus.MustRegister(CompletionTokensTotal)
		prometheus.MustRegister(CompletionErrorsTotal)
		prometheus.MustRegister(CompletionThrottledTotal)
		prometheus.MustRegister(CompletionBudgetTokensRemaining)
		prometheus.MustRegister(LookupsTotal)
		prometheus.MustRegister(ExtractionTotal)
		prometheus.MustRegister(ExtractedRecords)
	})
}
