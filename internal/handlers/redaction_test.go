package handlers

import "testing"

func TestRedaction(t *testing.T) {
	tests := []struct {
		channel string
		in      string
		want    string
	}{
		{"email", "alice@example.com", "a***@example.com"},
		{"email", "bad", "[redacted]"},
		{"email", "@example.com", "***@example.com"},
		{"email", "", ""},
		{"sms", "+15551234567", "***67"},
		{"sms", "123", "[redacted]"},
		{"sms", " ", ""},
	}
	for _, tt := range tests {
		if got := redactAddress(tt.channel, tt.in); got != tt.want {
			t.Errorf("redactAddress(%q, %q) = %q, want %q", tt.channel, tt.in, got, tt.want)
		}
	}
}
