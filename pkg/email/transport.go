// Package email holds the outbound transactional email transports. Each
// transport sends one message to one mailbox and reports the provider's
// message id when it has one.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredentials is returned by constructors when a provider's
// credential is absent. Callers treat it as "channel not configured".
var ErrMissingCredentials = errors.New("email provider credentials not configured")

// Identity is the fixed sender mailbox. It is configured, never caller supplied.
type Identity struct {
	Address string
	Name    string
}

// Message is one transactional email addressed to one mailbox.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Receipt is what a provider hands back on acceptance.
type Receipt struct {
	MessageID  string
	StatusCode int
}

// Transport sends one message through one upstream provider.
type Transport interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
	Name() string
}

// RejectedError is a non-2xx answer from a provider for one message.
type RejectedError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s rejected message: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s rejected message: status %d: %s", e.Provider, e.StatusCode, truncate(body, 512))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

func formatAddress(name, address string) string {
	name = strings.TrimSpace(sanitizeHeader(name))
	address = sanitizeHeader(address)
	if name == "" {
		return address
	}
	return fmt.Sprintf("%q <%s>", name, address)
}
