package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"socialguard/pkg/clients"
)

// SMTPConfig configures a plain SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     Identity
}

// SMTPTransport relays mail through an SMTP server using STARTTLS when offered.
type SMTPTransport struct {
	config  SMTPConfig
	auth    smtp.Auth
	dialer  *net.Dialer
	breaker *clients.CircuitBreaker
}

type SMTPOption func(*SMTPTransport)

// WithSMTPBreaker guards deliveries with a circuit breaker. Permanent 5xx
// replies reject one message and do not count as failures.
func WithSMTPBreaker(cb *clients.CircuitBreaker) SMTPOption {
	return func(t *SMTPTransport) {
		t.breaker = cb
	}
}

// NewSMTPTransport returns ErrMissingCredentials when no host is configured.
func NewSMTPTransport(config SMTPConfig, opts ...SMTPOption) (*SMTPTransport, error) {
	if strings.TrimSpace(config.Host) == "" || strings.TrimSpace(config.From.Address) == "" {
		return nil, ErrMissingCredentials
	}
	if config.Port == "" {
		config.Port = "587"
	}

	var auth smtp.Auth
	if config.User != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}

	t := &SMTPTransport{
		config: config,
		auth:   auth,
		dialer: &net.Dialer{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Send(ctx context.Context, msg Message) (Receipt, error) {
	messageID := newMessageID(t.config.From.Address)
	body := buildMIME(t.config.From, msg, messageID)

	var rejected error
	err := t.breaker.Call(func() error {
		err := t.deliver(ctx, msg.To, body)
		var reply *textproto.Error
		if errors.As(err, &reply) && reply.Code >= 500 {
			rejected = &RejectedError{Provider: t.Name(), StatusCode: reply.Code, Body: err.Error()}
			return nil
		}
		return err
	})
	if err != nil {
		return Receipt{}, err
	}
	if rejected != nil {
		return Receipt{}, rejected
	}

	return Receipt{MessageID: messageID, StatusCode: 250}, nil
}

func (t *SMTPTransport) deliver(ctx context.Context, to string, body []byte) error {
	addr := net.JoinHostPort(t.config.Host, t.config.Port)

	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, t.config.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(tlsConfig(t.config.Host)); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if t.auth != nil {
		if err := c.Auth(t.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(t.config.From.Address); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	if err := c.Rcpt(sanitizeHeader(to)); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := c.Quit(); err != nil {
		return fmt.Errorf("quit: %w", err)
	}

	return nil
}

func buildMIME(from Identity, msg Message, messageID string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", formatAddress(from.Name, from.Address)),
		fmt.Sprintf("To: %s", formatAddress(msg.ToName, msg.To)),
		fmt.Sprintf("Subject: %s", sanitizeHeader(msg.Subject)),
		fmt.Sprintf("Message-ID: %s", messageID),
		fmt.Sprintf("Date: %s", time.Now().UTC().Format(time.RFC1123Z)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		msg.HTML,
	}
	return []byte(strings.Join(headers, "\r\n"))
}

func newMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}

func tlsConfig(host string) *tls.Config {
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}
