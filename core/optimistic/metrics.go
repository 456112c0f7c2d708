package optimistic

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Mutation outcomes, as counted.
const (
	OutcomeSuccess  = "success"
	OutcomeReverted = "reverted"
	OutcomeRejected = "rejected" // nothing applied: invalid input or lock not acquired
)

type Metrics struct {
	mutations *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics creates the mutation metrics and registers them with reg (when not nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "mutations_total",
			Help:      "Optimistic mutations by entity and outcome.",
		}, []string{"entity", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Name:      "mutation_remote_seconds",
			Help:      "Duration of the remote part of optimistic mutations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity"}),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.duration)
	}
	return m
}

func (m *Metrics) observe(entity, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(entity, outcome).Inc()
	if outcome != OutcomeRejected {
		m.duration.WithLabelValues(entity).Observe(seconds)
	}
}
