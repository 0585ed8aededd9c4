package metric

import "github.com/prometheus/client_golang/prometheus"

// Adapter holds the storage adapter's metrics.
type Adapter struct {
	KeysRewritten prometheus.Counter
	Settled       *prometheus.CounterVec
}

// NewAdapter creates the adapter metrics and registers them with reg,
// reusing collectors an earlier call already registered. A nil reg leaves
// them unregistered.
func NewAdapter(reg prometheus.Registerer) *Adapter {
	a := &Adapter{
		KeysRewritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "adapter",
			Name:      "keys_rewritten_total",
			Help:      "Keys changed by the replacer before reaching the facility",
		}),
		Settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "adapter",
			Name:      "futures_settled_total",
			Help:      "Adapter futures settled, by operation and outcome",
		}, []string{"op", "outcome"}),
	}
	a.KeysRewritten = Register(reg, a.KeysRewritten)
	a.Settled = Register(reg, a.Settled)
	return a
}

// KeyRewritten counts one replacer rewrite.
func (a *Adapter) KeyRewritten() {
	if a == nil {
		return
	}
	a.KeysRewritten.Inc()
}

// ObserveSettled counts one settled future. outcome is "resolved" or "rejected".
func (a *Adapter) ObserveSettled(op string, err error) {
	if a == nil {
		return
	}
	outcome := "resolved"
	if err != nil {
		outcome = "rejected"
	}
	a.Settled.WithLabelValues(op, outcome).Inc()
}
