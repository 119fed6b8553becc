package validation

import (
	"fmt"
	"strings"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	MaxRecipients    = 1000
	MaxSubjectLength = 998
)

// NotificationParams is the channel-agnostic view of a send request.
type NotificationParams struct {
	Channel    string
	Recipients []string
	Subject    string
	Body       string
}

// ValidateNotification returns every problem found; an empty result means
// the request may be dispatched. Address syntax is left to the provider so
// a bad address fails only its own recipient.
func ValidateNotification(p NotificationParams) []string {
	var errors []string

	switch p.Channel {
	case ChannelEmail, ChannelSMS:
	default:
		errors = append(errors, fmt.Sprintf("Unknown channel %q", p.Channel))
	}

	if len(p.Recipients) == 0 {
		errors = append(errors, "At least one recipient is required")
	}
	if len(p.Recipients) > MaxRecipients {
		errors = append(errors, fmt.Sprintf("Too many recipients (maximum %d)", MaxRecipients))
	}
	for i, r := range p.Recipients {
		if strings.TrimSpace(r) == "" {
			errors = append(errors, fmt.Sprintf("Recipient %d has an empty address", i+1))
		}
	}

	if strings.TrimSpace(p.Body) == "" {
		errors = append(errors, "Message is required")
	}

	subject := strings.TrimSpace(p.Subject)
	switch p.Channel {
	case ChannelEmail:
		if subject == "" {
			errors = append(errors, "Subject is required for email")
		}
		if len(p.Subject) > MaxSubjectLength {
			errors = append(errors, fmt.Sprintf("Subject is too long (maximum %d characters)", MaxSubjectLength))
		}
	case ChannelSMS:
		if subject != "" {
			errors = append(errors, "Subject is not supported for SMS")
		}
	}

	return errors
}
