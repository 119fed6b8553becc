package dispatch

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidRequest is wrapped by every ValidationError.
	ErrInvalidRequest = errors.New("invalid notification request")

	// ErrChannelNotConfigured is wrapped by every ConfigurationError.
	ErrChannelNotConfigured = errors.New("channel not configured")

	// ErrNotAttempted marks recipients skipped because the dispatch
	// deadline passed before their turn.
	ErrNotAttempted = errors.New("not attempted: dispatch deadline exceeded")
)

// ValidationError rejects a request before any provider is contacted.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidRequest.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// ConfigurationError means the channel has no usable provider; no
// recipient on it can succeed.
type ConfigurationError struct {
	Channel Channel
}

func (e *ConfigurationError) Error() string {
	return string(e.Channel) + " " + ErrChannelNotConfigured.Error()
}

func (e *ConfigurationError) Unwrap() error { return ErrChannelNotConfigured }

// DeliveryError is the partial-failure signal of a completed dispatch.
type DeliveryError struct {
	Channel Channel
	Failed  []string
	Total   int
}

func (d *DeliveryError) Error() string {
	return "Failed to send to: " + strings.Join(d.Failed, ", ")
}

// IsPartial reports whether at least one recipient was sent.
func (d *DeliveryError) IsPartial() bool {
	return len(d.Failed) < d.Total
}
