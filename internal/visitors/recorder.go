package visitors

import (
	"context"
	"sync"
	"time"

	"socialguard/pkg/geoip"
	"socialguard/pkg/logging"
)

const (
	DefaultQueueSize    = 256
	defaultEnrichBudget = 5 * time.Second
	defaultAppendBudget = 10 * time.Second
)

// Recorder enriches and stores visits on a single background worker.
type Recorder struct {
	resolver geoip.Resolver
	sink     Sink
	logger   logging.Logger
	metrics  *Metrics

	queue  chan Visit
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

type RecorderOption func(*Recorder)

func WithQueueSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan Visit, n)
		}
	}
}

func WithMetrics(m *Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder starts the worker. A nil resolver means no enrichment and a
// nil sink means visits are counted and discarded.
func NewRecorder(resolver geoip.Resolver, sink Sink, logger logging.Logger, opts ...RecorderOption) *Recorder {
	if resolver == nil {
		resolver = geoip.NoopResolver{}
	}
	r := &Recorder{
		resolver: resolver,
		sink:     sink,
		logger:   logger,
		queue:    make(chan Visit, DefaultQueueSize),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Notify enqueues v without blocking. A full queue or a closed recorder
// drops the visit.
func (r *Recorder) Notify(v Visit) {
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.metrics.IncEvent(statusDropped)
		return
	}

	select {
	case r.queue <- v:
	default:
		r.metrics.IncEvent(statusDropped)
		r.logger.WithField("ip", v.IP).Warn("Visitor queue full, dropping visit")
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for v := range r.queue {
		r.record(v)
	}
}

func (r *Recorder) record(v Visit) {
	rec := Record{
		IPAddress: v.IP,
		UserAgent: v.UserAgent,
		Timestamp: v.Timestamp,
		Location:  r.enrich(v.IP),
	}

	if r.sink == nil {
		r.metrics.IncEvent(statusUnconfigured)
		r.logger.WithFields(logging.Fields{
			"ip":       rec.IPAddress,
			"location": rec.Location.String(),
		}).Debug("Visitor store not configured, visit not persisted")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultAppendBudget)
	defer cancel()

	if err := r.sink.Append(ctx, rec); err != nil {
		r.metrics.IncEvent(statusSinkError)
		r.logger.WithFields(logging.Fields{
			"sink":  r.sink.Name(),
			"ip":    rec.IPAddress,
			"error": err.Error(),
		}).Error("Failed to record visitor")
		return
	}

	r.metrics.IncEvent(statusRecorded)
}

func (r *Recorder) enrich(ip string) (loc geoip.Location) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.WithField("panic", p).Error("Geo lookup panicked")
			loc = geoip.Unknown
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), defaultEnrichBudget)
	defer cancel()
	return r.resolver.Resolve(ctx, ip)
}

// Close stops accepting visits and waits for the queue to drain or ctx
// to expire, whichever comes first.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
