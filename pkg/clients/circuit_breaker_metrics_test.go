package clients

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBreakerMetrics_RecordsTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBreakerMetrics(reg)

	cfg := tripConfig("twilio")
	cfg.OnStateChange = m.Callback()
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errors.New("fail") })
	}

	if got := testutil.ToFloat64(m.state.WithLabelValues("twilio")); got != float64(StateOpen) {
		t.Fatalf("expected state gauge %d, got %v", StateOpen, got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("twilio", "closed", "open")); got != 1 {
		t.Fatalf("expected one closed->open transition, got %v", got)
	}
}

func TestBreakerMetrics_NilIsNoop(t *testing.T) {
	var m *BreakerMetrics
	m.RecordTransition("x", StateClosed, StateOpen)
}
