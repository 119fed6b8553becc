package kafka

import (
	"testing"

	"socialguard/pkg/logging"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(nil, "socialguard", logging.NewDiscardLogger()); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestNewProducerIsLazy(t *testing.T) {
	// kgo connects on first use, so construction against an unreachable
	// seed succeeds.
	p, err := NewProducer([]string{"127.0.0.1:1"}, "socialguard", logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	_ = p.Close()
}
