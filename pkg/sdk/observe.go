package scopeq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "scopeq"
	metricsSubsystem = "sdk"
)

type sdkMetrics struct {
	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	searches       *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	ignored        *prometheus.CounterVec
}

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      name,
		Help:      help,
		Buckets:   prometheus.DefBuckets,
	}, labels)
}

// newSDKMetrics registers the SDK collectors on reg. Collectors already
// registered by another Client on the same registry are shared.
func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations:     counterVec("operations_total", "SDK calls by operation and status.", "operation", "status"),
		duration:       histogramVec("operation_duration_seconds", "SDK call duration in seconds.", "operation"),
		searches:       counterVec("searches_total", "Searches by resource and outcome.", "resource", "outcome"),
		searchDuration: histogramVec("search_duration_seconds", "Search duration by resource in seconds.", "resource"),
		ignored:        counterVec("ignored_params_total", "Request parameters left out of a query.", "resource", "kind"),
	}
	err := errors.Join(
		registerOrReuse(reg, &m.operations),
		registerOrReuse(reg, &m.duration),
		registerOrReuse(reg, &m.searches),
		registerOrReuse(reg, &m.searchDuration),
		registerOrReuse(reg, &m.ignored),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("scopeq: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("scopeq: metric registered with a different type %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts SDK calls. The search service reports
// per-search outcomes to it as well. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, statusLabel(err)).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.LogAttrs(context.Background(), slog.LevelWarn, "scopeq call failed",
			slog.String("op", op), slog.Duration("duration", dur), slog.Any("error", err))
		return
	}
	o.logger.LogAttrs(context.Background(), slog.LevelDebug, "scopeq call completed",
		slog.String("op", op), slog.Duration("duration", dur))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveSearch records the outcome of one search.
func (o *observer) ObserveSearch(resource, outcome string, d time.Duration) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.searches.WithLabelValues(resource, outcome).Inc()
	o.metrics.searchDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// ObserveIgnored records parameters that did not reach the query.
func (o *observer) ObserveIgnored(resource, kind string, n int) {
	if o == nil || n <= 0 {
		return
	}
	if o.metrics != nil {
		o.metrics.ignored.WithLabelValues(resource, kind).Add(float64(n))
	}
	if o.logger != nil {
		o.logger.LogAttrs(context.Background(), slog.LevelDebug, "search parameters ignored",
			slog.String("resource", resource), slog.String("kind", kind), slog.Int("count", n))
	}
}
