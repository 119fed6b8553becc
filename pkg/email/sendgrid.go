package email

import (
	"context"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"socialguard/pkg/clients"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridTransport sends through the SendGrid v3 mail API.
type SendGridTransport struct {
	apiKey  string
	host    string
	from    Identity
	breaker *clients.CircuitBreaker
}

// SendGridOption customises a SendGridTransport.
type SendGridOption func(*SendGridTransport)

// WithSendGridHost points the transport at another API host (tests, EU region).
func WithSendGridHost(host string) SendGridOption {
	return func(t *SendGridTransport) {
		if host != "" {
			t.host = strings.TrimRight(host, "/")
		}
	}
}

// WithSendGridBreaker guards calls with a circuit breaker.
func WithSendGridBreaker(cb *clients.CircuitBreaker) SendGridOption {
	return func(t *SendGridTransport) {
		t.breaker = cb
	}
}

// NewSendGridTransport returns ErrMissingCredentials without an API key or sender.
func NewSendGridTransport(apiKey string, from Identity, opts ...SendGridOption) (*SendGridTransport, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from.Address) == "" {
		return nil, ErrMissingCredentials
	}
	t := &SendGridTransport{
		apiKey: apiKey,
		host:   sendGridHost,
		from:   from,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *SendGridTransport) Name() string { return "sendgrid" }

func (t *SendGridTransport) Send(ctx context.Context, msg Message) (Receipt, error) {
	m := mail.NewSingleEmail(
		mail.NewEmail(t.from.Name, t.from.Address),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		"",
		msg.HTML,
	)

	request := sendgrid.GetRequest(t.apiKey, sendGridEndpoint, t.host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(m)

	var resp *rest.Response
	err := t.breaker.Call(func() error {
		var err error
		resp, err = sendgrid.MakeRequestWithContext(ctx, request)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return &RejectedError{Provider: t.Name(), StatusCode: resp.StatusCode, Body: resp.Body}
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Receipt{}, &RejectedError{Provider: t.Name(), StatusCode: resp.StatusCode, Body: resp.Body}
	}

	return Receipt{
		MessageID:  http.Header(resp.Headers).Get("X-Message-Id"),
		StatusCode: resp.StatusCode,
	}, nil
}
