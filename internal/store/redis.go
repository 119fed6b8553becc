package store

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"socialguard/internal/visitors"
)

const defaultStreamMaxLen = 100000

// RedisSink appends records to a capped Redis stream.
type RedisSink struct {
	client goredis.Cmdable
	stream string
	maxLen int64
}

func NewRedisSink(client goredis.Cmdable, stream string) *RedisSink {
	return &RedisSink{client: client, stream: stream, maxLen: defaultStreamMaxLen}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Append(ctx context.Context, rec visitors.Record) error {
	value, err := newVisitorEvent(rec).marshal()
	if err != nil {
		return fmt.Errorf("marshal visitor event: %w", err)
	}
	err = s.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"kind":  visitors.Kind,
			"ip":    rec.IPAddress,
			"event": value,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}
