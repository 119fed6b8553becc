package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"socialguard/pkg/clients"
	"socialguard/pkg/email"
	"socialguard/pkg/sms"
)

type fakeEmailTransport struct {
	got []email.Message
	err error
}

func (f *fakeEmailTransport) Name() string { return "fake" }

func (f *fakeEmailTransport) Send(ctx context.Context, msg email.Message) (email.Receipt, error) {
	f.got = append(f.got, msg)
	if f.err != nil {
		return email.Receipt{}, f.err
	}
	return email.Receipt{MessageID: "msg-1", StatusCode: 202}, nil
}

type fakeSMSTransport struct {
	err error
}

func (f *fakeSMSTransport) Send(ctx context.Context, msg sms.Message) (sms.Receipt, error) {
	if f.err != nil {
		return sms.Receipt{}, f.err
	}
	return sms.Receipt{SID: "SM" + msg.To}, nil
}

func TestEmailAdapter(t *testing.T) {
	tr := &fakeEmailTransport{}
	a := NewEmailAdapter(tr)
	assert.True(t, a.Available())
	assert.Equal(t, "fake", a.Provider())

	out := a.Send(context.Background(), Recipient{Address: "a@x.com", Name: "Ann"}, Content{Subject: "Hi", Body: "<b>x</b>"})
	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, "msg-1", out.ProviderReference)
	assert.Equal(t, email.Message{To: "a@x.com", ToName: "Ann", Subject: "Hi", HTML: "<b>x</b>"}, tr.got[0])

	tr.err = &email.RejectedError{Provider: "fake", StatusCode: 400, Body: "invalid address"}
	out = a.Send(context.Background(), Recipient{Address: "bad"}, Content{Subject: "Hi", Body: "x"})
	assert.Equal(t, StatusFailed, out.Status)
	assert.Contains(t, out.Detail(), "invalid address")

	var rejected *email.RejectedError
	assert.True(t, errors.As(out.Err, &rejected))
}

func TestSMSAdapter(t *testing.T) {
	a := NewSMSAdapter(&fakeSMSTransport{})
	out := a.Send(context.Background(), Recipient{Address: "+1555"}, Content{Body: "x"})
	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, "SM+1555", out.ProviderReference)

	a = NewSMSAdapter(&fakeSMSTransport{err: errors.New("invalid number")})
	out = a.Send(context.Background(), Recipient{Address: "nope"}, Content{Body: "x"})
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "invalid number", out.Detail())
}

func TestUnavailableAdapters(t *testing.T) {
	for _, a := range []Adapter{NewEmailAdapter(nil), NewSMSAdapter(nil)} {
		assert.False(t, a.Available())
		out := a.Send(context.Background(), Recipient{Address: "x"}, Content{Body: "x"})
		assert.Equal(t, StatusFailed, out.Status)
		assert.ErrorIs(t, out.Err, ErrChannelNotConfigured)
	}
	assert.Equal(t, "", NewEmailAdapter(nil).Provider())
}

func TestAdaptersKeepCircuitOpenError(t *testing.T) {
	emailAdapter := NewEmailAdapter(&fakeEmailTransport{err: clients.ErrCircuitOpen})
	out := emailAdapter.Send(context.Background(), Recipient{Address: "a@x.com"}, Content{Subject: "Hi", Body: "x"})
	assert.True(t, clients.IsCircuitOpen(out.Err))

	smsAdapter := NewSMSAdapter(&fakeSMSTransport{err: fmt.Errorf("twilio: %w", clients.ErrCircuitOpen)})
	out = smsAdapter.Send(context.Background(), Recipient{Address: "+1555"}, Content{Body: "x"})
	assert.True(t, clients.IsCircuitOpen(out.Err))
}
