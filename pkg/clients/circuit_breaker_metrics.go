package clients

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BreakerMetrics records provider breaker state in Prometheus.
type BreakerMetrics struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

// NewBreakerMetrics registers the breaker collectors on reg.
func NewBreakerMetrics(reg prometheus.Registerer) *BreakerMetrics {
	m := &BreakerMetrics{
		// Values: 0=closed, 1=half-open, 2=open
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "socialguard_provider_breaker_state",
				Help: "Current state of provider circuit breaker (0=closed, 1=half-open, 2=open)",
			},
			[]string{"provider"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialguard_provider_breaker_transitions_total",
				Help: "Total number of provider circuit breaker state transitions",
			},
			[]string{"provider", "from", "to"},
		),
	}
	reg.MustRegister(m.state, m.transitions)
	return m
}

// RecordTransition records a state transition and the resulting state.
func (m *BreakerMetrics) RecordTransition(name string, from, to CircuitBreakerState) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(name, from.String(), to.String()).Inc()
	m.state.WithLabelValues(name).Set(float64(to))
}

// Callback returns a function suitable for CircuitBreakerConfig.OnStateChange.
func (m *BreakerMetrics) Callback() func(string, CircuitBreakerState, CircuitBreakerState) {
	return func(name string, from, to CircuitBreakerState) {
		m.RecordTransition(name, from, to)
	}
}
