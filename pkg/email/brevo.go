package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"socialguard/pkg/clients"
)

const brevoBaseURL = "https://api.brevo.com"

// BrevoTransport sends through the Brevo (ex-Sendinblue) transactional API.
type BrevoTransport struct {
	apiKey       string
	baseURL      string
	from         Identity
	client       *http.Client
	httpExecutor failsafe.Executor[*http.Response]
}

// BrevoOption customises a BrevoTransport.
type BrevoOption func(*BrevoTransport)

func WithBrevoBaseURL(baseURL string) BrevoOption {
	return func(t *BrevoTransport) {
		if baseURL != "" {
			t.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithBrevoHTTPClient(client *http.Client) BrevoOption {
	return func(t *BrevoTransport) {
		if client != nil {
			t.client = client
		}
	}
}

func WithBrevoExecutor(executor failsafe.Executor[*http.Response]) BrevoOption {
	return func(t *BrevoTransport) {
		t.httpExecutor = executor
	}
}

// NewBrevoTransport returns ErrMissingCredentials without an API key or sender.
func NewBrevoTransport(apiKey string, from Identity, opts ...BrevoOption) (*BrevoTransport, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from.Address) == "" {
		return nil, ErrMissingCredentials
	}
	t := &BrevoTransport{
		apiKey:       apiKey,
		baseURL:      brevoBaseURL,
		from:         from,
		client:       clients.NewHTTPClient(30 * time.Second),
		httpExecutor: clients.NewHTTPExecutor(clients.DefaultCircuitBreakerConfig("brevo")),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *BrevoTransport) Name() string { return "brevo" }

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoSendRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type brevoSendResponse struct {
	MessageID string `json:"messageId"`
}

func (t *BrevoTransport) Send(ctx context.Context, msg Message) (Receipt, error) {
	payload, err := json.Marshal(brevoSendRequest{
		Sender:      brevoContact{Email: t.from.Address, Name: t.from.Name},
		To:          []brevoContact{{Email: msg.To, Name: msg.ToName}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("encode brevo request: %w", err)
	}

	url := t.baseURL + "/v3/smtp/email"
	resp, err := clients.ExecuteHTTP(ctx, t.httpExecutor, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("api-key", t.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return t.client.Do(req)
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("brevo request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Receipt{}, &RejectedError{Provider: t.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	// The message id is informational only.
	var decoded brevoSendResponse
	_ = json.Unmarshal(body, &decoded)

	return Receipt{MessageID: decoded.MessageID, StatusCode: resp.StatusCode}, nil
}
