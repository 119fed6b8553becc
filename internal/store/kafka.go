package store

import (
	"context"
	"fmt"

	"socialguard/internal/visitors"
)

// Producer is the part of pkg/kafka.Producer the sink needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// KafkaSink publishes each record as JSON keyed by IP address.
type KafkaSink struct {
	producer Producer
	topic    string
}

func NewKafkaSink(producer Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Append(ctx context.Context, rec visitors.Record) error {
	value, err := newVisitorEvent(rec).marshal()
	if err != nil {
		return fmt.Errorf("marshal visitor event: %w", err)
	}
	headers := map[string]string{"event_type": visitors.Kind, "source": "socialguard"}
	return s.producer.Produce(ctx, s.topic, []byte(rec.IPAddress), value, headers)
}
