package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"socialguard/internal/validation"
	"socialguard/pkg/clients"
	"socialguard/pkg/logging"
)

const DefaultSendTimeout = 30 * time.Second

// Dispatcher routes a Request to the adapter for its channel.
type Dispatcher struct {
	adapters    map[Channel]Adapter
	workers     int
	sendTimeout time.Duration
	deadline    time.Duration
	logger      logging.Logger
}

type Option func(*Dispatcher)

// WithWorkers bounds concurrent sends within one call. 1 is sequential.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithSendTimeout caps each provider call.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// WithDeadline bounds a whole DispatchAll call. Recipients not started
// before it passes fail with ErrNotAttempted and sends in flight are cut
// off, so the report is always returned within roughly d.
func WithDeadline(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.deadline = d
		}
	}
}

func NewDispatcher(logger logging.Logger, adapters []Adapter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		adapters:    make(map[Channel]Adapter, len(adapters)),
		workers:     1,
		sendTimeout: DefaultSendTimeout,
		logger:      logger,
	}
	for _, a := range adapters {
		if a != nil {
			d.adapters[a.Channel()] = a
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configured reports which channels have a usable adapter.
func (d *Dispatcher) Configured() map[string]bool {
	return map[string]bool{
		string(ChannelEmail): d.available(ChannelEmail),
		string(ChannelSMS):   d.available(ChannelSMS),
	}
}

func (d *Dispatcher) available(ch Channel) bool {
	a, ok := d.adapters[ch]
	return ok && a.Available()
}

// DispatchAll validates req, then attempts every recipient and returns
// one outcome per recipient in input order. The returned error is a
// *ValidationError or *ConfigurationError; partial failure is reported
// through Report.Err.
//
// Sends are not cancelled when ctx is: once started, each recipient runs
// to a terminal outcome, the per-send timeout or the dispatch deadline.
func (d *Dispatcher) DispatchAll(ctx context.Context, req Request) (*Report, error) {
	if problems := validate(req); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	adapter, ok := d.adapters[req.Channel]
	if !ok || !adapter.Available() {
		return nil, &ConfigurationError{Channel: req.Channel}
	}

	report := &Report{
		Channel:  req.Channel,
		Outcomes: make([]Outcome, len(req.Recipients)),
	}
	content := req.content()
	base := context.WithoutCancel(ctx)
	if d.deadline > 0 {
		var cancel context.CancelFunc
		base, cancel = context.WithTimeout(base, d.deadline)
		defer cancel()
	}

	if d.workers <= 1 || len(req.Recipients) == 1 {
		for i, r := range req.Recipients {
			report.Outcomes[i] = d.sendOne(base, adapter, r, content)
		}
		return report, nil
	}

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, r := range req.Recipients {
		g.Go(func() error {
			report.Outcomes[i] = d.sendOne(base, adapter, r, content)
			return nil
		})
	}
	_ = g.Wait()

	return report, nil
}

func (d *Dispatcher) sendOne(ctx context.Context, adapter Adapter, r Recipient, content Content) (out Outcome) {
	if ctx.Err() != nil {
		return Failed(r, ErrNotAttempted)
	}

	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			d.logger.WithFields(logging.Fields{
				"channel": adapter.Channel(),
				"panic":   p,
			}).Error("Adapter panicked during send")
			out = Failed(r, fmt.Errorf("internal error during send"))
		}
	}()

	out = adapter.Send(ctx, r, content)
	if out.Status == StatusFailed {
		if out.Err == nil {
			out.Err = fmt.Errorf("send failed")
		}
		d.logger.WithFields(logging.Fields{
			"channel":      adapter.Channel(),
			"circuit_open": clients.IsCircuitOpen(out.Err),
		}).WithError(out.Err).Debug("Send failed")
	}
	out.Recipient = r
	return out
}

func validate(req Request) []string {
	addrs := make([]string, len(req.Recipients))
	for i, r := range req.Recipients {
		addrs[i] = r.Address
	}
	return validation.ValidateNotification(validation.NotificationParams{
		Channel:    string(req.Channel),
		Recipients: addrs,
		Subject:    req.Subject,
		Body:       req.Body,
	})
}
