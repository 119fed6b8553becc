package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func tripConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 2,
		MinRequests:      3,
		Delay:            50 * time.Millisecond,
	}
}

func TestCircuitBreaker_StartsInClosedState(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("sendgrid"))
	if cb.State() != StateClosed {
		t.Fatalf("expected CLOSED, got %s", cb.State())
	}
	if cb.Name() != "sendgrid" {
		t.Fatalf("expected name sendgrid, got %q", cb.Name())
	}
}

func TestCircuitBreaker_RejectsCallsWhenOpen(t *testing.T) {
	var transitions []string
	cfg := tripConfig("test-reject")
	cfg.Delay = time.Second
	cfg.OnStateChange = func(_ string, _, to CircuitBreakerState) {
		transitions = append(transitions, to.String())
	}
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errors.New("fail") })
	}

	if cb.State() != StateOpen {
		t.Fatalf("expected OPEN, got %s", cb.State())
	}
	if len(transitions) == 0 || transitions[0] != "open" {
		t.Fatalf("expected transition to open, got %v", transitions)
	}

	called := false
	err := cb.Call(func() error { called = true; return nil })
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open-circuit error, got %v", err)
	}
	if called {
		t.Fatal("fn must not run while the circuit is open")
	}
}

func TestCircuitBreaker_HalfOpenProbeCloses(t *testing.T) {
	cb := NewCircuitBreaker(tripConfig("test-half-open"))

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errors.New("fail") })
	}
	time.Sleep(70 * time.Millisecond)

	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected CLOSED after probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_NilIsPassThrough(t *testing.T) {
	var cb *CircuitBreaker
	want := errors.New("boom")
	if err := cb.Call(func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("nil breaker should report closed")
	}
}

func TestHTTPExecutor_DoesNotRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	exec := NewHTTPExecutor(CircuitBreakerConfig{Name: "test"})
	client := NewHTTPClient(time.Second)

	resp, err := ExecuteHTTP(context.Background(), exec, func() (*http.Response, error) {
		return client.Get(srv.URL)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 to be surfaced, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected exactly one attempt, got %d", got)
	}
}

func TestIsServerError(t *testing.T) {
	if !IsServerError(nil, errors.New("dial")) {
		t.Fatal("transport error should count")
	}
	if !IsServerError(&http.Response{StatusCode: 502}, nil) {
		t.Fatal("5xx should count")
	}
	if IsServerError(&http.Response{StatusCode: 400}, nil) {
		t.Fatal("4xx should not count")
	}
}
