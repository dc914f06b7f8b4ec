package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search Prometheus metrics.
var (
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scopeq",
			Name:      "search_total",
			Help:      "Total number of searches by outcome",
		},
		[]string{"resource", "outcome"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scopeq",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"resource"},
	)

	SearchIgnoredParamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scopeq",
			Name:      "search_ignored_params_total",
			Help:      "Request parameters that did not reach the query",
		},
		[]string{"resource", "kind"}, // "undeclared" / "scope_collision"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchIgnoredParamsTotal)
	searchMetricsRegistered = true
}

// SearchObserver records search outcomes into the package metrics.
type SearchObserver struct{}

// ObserveSearch records one finished search.
func (SearchObserver) ObserveSearch(resource, outcome string, d time.Duration) {
	SearchTotal.WithLabelValues(resource, outcome).Inc()
	SearchDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// ObserveIgnored records n parameters of kind that were left out of a query.
func (SearchObserver) ObserveIgnored(resource, kind string, n int) {
	if n <= 0 {
		return
	}
	SearchIgnoredParamsTotal.WithLabelValues(resource, kind).Add(float64(n))
}
