package stream

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds optional Prometheus instrumentation for a stream backend.
// A nil *Metrics is a no-op, so backends can be constructed without a
// registry.
type Metrics struct {
	ops       *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	records   prometheus.Gauge
	claimed   prometheus.Counter
	unclaimed prometheus.Counter
}

// NewMetrics creates and registers stream metrics with the given registry.
// The stream name becomes a constant label so multiple streams can share a
// registry.
func NewMetrics(registry prometheus.Registerer, streamName string) (*Metrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "strand",
			Subsystem:   "stream",
			Name:        "operations_total",
			Help:        "Total number of stream operations",
			ConstLabels: prometheus.Labels{"stream": streamName},
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "strand",
			Subsystem:   "stream",
			Name:        "operation_errors_total",
			Help:        "Total number of failed stream operations",
			ConstLabels: prometheus.Labels{"stream": streamName},
		}, []string{"operation"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "strand",
			Subsystem:   "stream",
			Name:        "operation_duration_seconds",
			Help:        "Stream operation duration in seconds",
			ConstLabels: prometheus.Labels{"stream": streamName},
			Buckets:     []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "strand",
			Subsystem:   "stream",
			Name:        "record_count",
			Help:        "Current number of records across partitions",
			ConstLabels: prometheus.Labels{"stream": streamName},
		}),
		claimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "strand",
			Subsystem:   "stream",
			Name:        "handling_claims_total",
			Help:        "Total number of records claimed by TryHandleRecord",
			ConstLabels: prometheus.Labels{"stream": streamName},
		}),
		unclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "strand",
			Subsystem:   "stream",
			Name:        "handling_empty_attempts_total",
			Help:        "Total number of TryHandleRecord attempts that found no eligible record",
			ConstLabels: prometheus.Labels{"stream": streamName},
		}),
	}

	collectors := []prometheus.Collector{m.ops, m.errors, m.latency, m.records, m.claimed, m.unclaimed}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveOp records one operation's outcome and duration.
func (m *Metrics) ObserveOp(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(operation).Inc()
	m.latency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.errors.WithLabelValues(operation).Inc()
	}
}

// SetRecordCount updates the record count gauge.
func (m *Metrics) SetRecordCount(n int) {
	if m != nil {
		m.records.Set(float64(n))
	}
}

// ObserveClaim records a TryHandleRecord outcome.
func (m *Metrics) ObserveClaim(claimed bool) {
	if m == nil {
		return
	}
	if claimed {
		m.claimed.Inc()
	} else {
		m.unclaimed.Inc()
	}
}
