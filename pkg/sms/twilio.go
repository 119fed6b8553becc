// Package sms sends text messages through Twilio's Programmable Messaging API.
package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"socialguard/pkg/clients"
)

// ErrMissingCredentials is returned when the account SID, auth token or
// sender number is absent.
var ErrMissingCredentials = errors.New("sms provider credentials not configured")

// Message is one text message to one E.164 number.
type Message struct {
	To   string
	Body string
}

// Receipt carries Twilio's message SID and reported status.
type Receipt struct {
	SID    string
	Status string
}

// RejectedError is Twilio refusing one message (bad number, unverified
// recipient on a trial account, and so on).
type RejectedError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("twilio rejected message: status %d code %d: %s", e.StatusCode, e.Code, e.Message)
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioTransport sends SMS from a fixed sender number.
type TwilioTransport struct {
	api     messageCreator
	from    string
	timeout time.Duration
	breaker *clients.CircuitBreaker
}

// Option customises a TwilioTransport.
type Option func(*TwilioTransport)

// WithBreaker guards calls with a circuit breaker.
func WithBreaker(cb *clients.CircuitBreaker) Option {
	return func(t *TwilioTransport) {
		t.breaker = cb
	}
}

// WithTimeout bounds each HTTP call made by the Twilio SDK.
func WithTimeout(d time.Duration) Option {
	return func(t *TwilioTransport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

func withCreator(api messageCreator) Option {
	return func(t *TwilioTransport) {
		t.api = api
	}
}

// NewTwilioTransport builds a transport from account credentials.
func NewTwilioTransport(accountSID, authToken, from string, opts ...Option) (*TwilioTransport, error) {
	accountSID = strings.TrimSpace(accountSID)
	authToken = strings.TrimSpace(authToken)
	from = strings.TrimSpace(from)
	if accountSID == "" || authToken == "" || from == "" {
		return nil, ErrMissingCredentials
	}

	t := &TwilioTransport{from: from}
	for _, opt := range opts {
		opt(t)
	}
	if t.api == nil {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
		if t.timeout > 0 {
			client.SetTimeout(t.timeout)
		}
		t.api = client.Api
	}
	return t, nil
}

func (t *TwilioTransport) Name() string { return "twilio" }

type createResult struct {
	msg *twilioApi.ApiV2010Message
	err error
}

// Send returns when Twilio answers or ctx is done, whichever is first. The
// SDK call itself takes no context, so an abandoned call finishes in the
// background bounded by the client timeout.
func (t *TwilioTransport) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(t.from)
	params.SetBody(msg.Body)

	var (
		resp     *twilioApi.ApiV2010Message
		rejected *RejectedError
	)
	err := t.breaker.Call(func() error {
		var err error
		resp, err = t.create(ctx, params)
		if err == nil {
			return nil
		}
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Status < 500 {
			// Per-message rejection; the provider itself is healthy.
			rejected = &RejectedError{StatusCode: restErr.Status, Code: restErr.Code, Message: restErr.Message}
			return nil
		}
		return err
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("twilio: %w", err)
	}
	if rejected != nil {
		return Receipt{}, rejected
	}

	receipt := Receipt{}
	if resp != nil {
		if resp.Sid != nil {
			receipt.SID = *resp.Sid
		}
		if resp.Status != nil {
			receipt.Status = *resp.Status
		}
	}
	return receipt, nil
}

func (t *TwilioTransport) create(ctx context.Context, params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	done := make(chan createResult, 1)
	go func() {
		msg, err := t.api.CreateMessage(params)
		done <- createResult{msg: msg, err: err}
	}()

	select {
	case r := <-done:
		return r.msg, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("no response before deadline, delivery unknown: %w", ctx.Err())
	}
}
