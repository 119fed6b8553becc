package validation

import (
	"strings"
	"testing"
)

func TestValidateNotification(t *testing.T) {
	tests := []struct {
		name   string
		params NotificationParams
		want   []string
	}{
		{
			name:   "valid email",
			params: NotificationParams{Channel: ChannelEmail, Recipients: []string{"a@x.com", "bad"}, Subject: "Hi", Body: "<p>x</p>"},
		},
		{
			name:   "valid sms",
			params: NotificationParams{Channel: ChannelSMS, Recipients: []string{"+15551234567"}, Body: "x"},
		},
		{
			name:   "empty recipients",
			params: NotificationParams{Channel: ChannelSMS, Body: "x"},
			want:   []string{"At least one recipient is required"},
		},
		{
			name:   "blank recipient",
			params: NotificationParams{Channel: ChannelSMS, Recipients: []string{"+1555", "  "}, Body: "x"},
			want:   []string{"Recipient 2 has an empty address"},
		},
		{
			name:   "empty body",
			params: NotificationParams{Channel: ChannelEmail, Recipients: []string{"a@x.com"}, Subject: "Hi", Body: "   "},
			want:   []string{"Message is required"},
		},
		{
			name:   "missing subject on email",
			params: NotificationParams{Channel: ChannelEmail, Recipients: []string{"a@x.com"}, Body: "x"},
			want:   []string{"Subject is required for email"},
		},
		{
			name:   "subject on sms",
			params: NotificationParams{Channel: ChannelSMS, Recipients: []string{"+1555"}, Subject: "Hi", Body: "x"},
			want:   []string{"Subject is not supported for SMS"},
		},
		{
			name:   "unknown channel",
			params: NotificationParams{Channel: "fax", Recipients: []string{"1"}, Body: "x"},
			want:   []string{`Unknown channel "fax"`},
		},
		{
			name:   "everything wrong",
			params: NotificationParams{Channel: ChannelEmail},
			want: []string{
				"At least one recipient is required",
				"Message is required",
				"Subject is required for email",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateNotification(tt.params)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateNotificationLimits(t *testing.T) {
	recipients := make([]string, MaxRecipients+1)
	for i := range recipients {
		recipients[i] = "+1555"
	}
	got := ValidateNotification(NotificationParams{Channel: ChannelSMS, Recipients: recipients, Body: "x"})
	if len(got) != 1 || !strings.HasPrefix(got[0], "Too many recipients") {
		t.Fatalf("expected recipient limit error, got %q", got)
	}

	got = ValidateNotification(NotificationParams{
		Channel:    ChannelEmail,
		Recipients: []string{"a@x.com"},
		Subject:    strings.Repeat("s", MaxSubjectLength+1),
		Body:       "x",
	})
	if len(got) != 1 || !strings.HasPrefix(got[0], "Subject is too long") {
		t.Fatalf("expected subject length error, got %q", got)
	}
}
