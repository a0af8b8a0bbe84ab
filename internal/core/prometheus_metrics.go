package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports operation counts and latencies as
// gardenplanner_operations_total and gardenplanner_operation_duration_seconds.
type PrometheusMetricsRecorder struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers its collectors with reg. A nil reg
// leaves them unregistered.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	r := &PrometheusMetricsRecorder{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gardenplanner",
			Name:      "operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gardenplanner",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{r.ops, r.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	outcome := "error"
	if success {
		outcome = "ok"
	}
	r.ops.WithLabelValues(operation, outcome).Inc()
	r.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Collectors returns the underlying collectors.
func (r *PrometheusMetricsRecorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.ops, r.duration}
}

// Counter returns the counter for one operation and outcome ("ok" or "error").
func (r *PrometheusMetricsRecorder) Counter(operation, outcome string) prometheus.Counter {
	return r.ops.WithLabelValues(operation, outcome)
}
