package dispatch

import (
	"context"
	"fmt"

	"socialguard/pkg/email"
	"socialguard/pkg/sms"
)

// Adapter sends one message unit to one recipient. Send never returns an
// error: transport problems become a failed Outcome.
type Adapter interface {
	Channel() Channel
	// Available is false when the adapter was built without a transport.
	Available() bool
	Send(ctx context.Context, to Recipient, content Content) Outcome
}

// EmailSender is the part of an email transport the adapter uses.
type EmailSender interface {
	Send(ctx context.Context, msg email.Message) (email.Receipt, error)
	Name() string
}

// EmailAdapter delivers HTML email through one configured transport.
type EmailAdapter struct {
	transport EmailSender
}

// NewEmailAdapter accepts a nil transport, yielding an unavailable adapter.
func NewEmailAdapter(transport EmailSender) *EmailAdapter {
	return &EmailAdapter{transport: transport}
}

func (a *EmailAdapter) Channel() Channel { return ChannelEmail }

func (a *EmailAdapter) Available() bool { return a != nil && a.transport != nil }

// Provider names the transport in use, or "" when unavailable.
func (a *EmailAdapter) Provider() string {
	if !a.Available() {
		return ""
	}
	return a.transport.Name()
}

func (a *EmailAdapter) Send(ctx context.Context, to Recipient, content Content) Outcome {
	if !a.Available() {
		return Failed(to, &ConfigurationError{Channel: ChannelEmail})
	}

	receipt, err := a.transport.Send(ctx, email.Message{
		To:      to.Address,
		ToName:  to.Name,
		Subject: content.Subject,
		HTML:    content.Body,
	})
	if err != nil {
		return Failed(to, fmt.Errorf("%s: %w", a.transport.Name(), err))
	}
	return Sent(to, receipt.MessageID)
}

// SMSSender is the part of an SMS transport the adapter uses.
type SMSSender interface {
	Send(ctx context.Context, msg sms.Message) (sms.Receipt, error)
}

// SMSAdapter delivers text messages; the provider SID becomes the
// outcome's ProviderReference.
type SMSAdapter struct {
	transport SMSSender
}

func NewSMSAdapter(transport SMSSender) *SMSAdapter {
	return &SMSAdapter{transport: transport}
}

func (a *SMSAdapter) Channel() Channel { return ChannelSMS }

func (a *SMSAdapter) Available() bool { return a != nil && a.transport != nil }

func (a *SMSAdapter) Send(ctx context.Context, to Recipient, content Content) Outcome {
	if !a.Available() {
		return Failed(to, &ConfigurationError{Channel: ChannelSMS})
	}

	receipt, err := a.transport.Send(ctx, sms.Message{To: to.Address, Body: content.Body})
	if err != nil {
		return Failed(to, err)
	}
	return Sent(to, receipt.SID)
}
