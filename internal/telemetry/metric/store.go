package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation results.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Store holds the facility's operation metrics.
type Store struct {
	OpsTotal   *prometheus.CounterVec
	OpDuration *prometheus.HistogramVec
	ValueBytes prometheus.Histogram
}

// NewStore creates the facility metrics and registers them with reg,
// reusing collectors an earlier call already registered. A nil reg leaves
// them unregistered.
func NewStore(reg prometheus.Registerer) *Store {
	s := &Store{
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Secure store operations by operation and result",
		}, []string{"op", "result"}),

		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Secure store operation latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"op"}),

		ValueBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "value_size_bytes",
			Help:      "Plaintext size of values written",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
		}),
	}
	s.OpsTotal = Register(reg, s.OpsTotal)
	s.OpDuration = Register(reg, s.OpDuration)
	s.ValueBytes = Register(reg, s.ValueBytes)
	return s
}

// ObserveOp records one finished operation.
func (s *Store) ObserveOp(op, result string, elapsed time.Duration) {
	if s == nil {
		return
	}
	s.OpsTotal.WithLabelValues(op, result).Inc()
	s.OpDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveValue records the size of a written value.
func (s *Store) ObserveValue(n int) {
	if s == nil {
		return
	}
	s.ValueBytes.Observe(float64(n))
}
