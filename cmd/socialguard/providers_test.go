package main

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gatewayconfig "socialguard/internal/config"
	"socialguard/pkg/clients"
	"socialguard/pkg/logging"
)

func newTestBreakers() *breakerSet {
	return &breakerSet{
		logger:  logging.NewDiscardLogger(),
		metrics: clients.NewBreakerMetrics(prometheus.NewRegistry()),
	}
}

func TestBuildEmailTransportFollowsConfig(t *testing.T) {
	logger := logging.NewDiscardLogger()

	tests := []struct {
		name     string
		cfg      gatewayconfig.GatewayConfig
		provider string
	}{
		{
			name: "nothing set",
			cfg:  gatewayconfig.GatewayConfig{EmailProvider: gatewayconfig.EmailProviderSendGrid},
		},
		{
			name: "smtp host without sender",
			cfg:  gatewayconfig.GatewayConfig{EmailProvider: gatewayconfig.EmailProviderSMTP, SMTPHost: "mail.example.com"},
		},
		{
			name: "key for another provider",
			cfg:  gatewayconfig.GatewayConfig{EmailProvider: gatewayconfig.EmailProviderSendGrid, BrevoAPIKey: "xkeysib", FromEmail: "a@x.com"},
		},
		{
			name:     "sendgrid",
			cfg:      gatewayconfig.GatewayConfig{EmailProvider: gatewayconfig.EmailProviderSendGrid, SendGridAPIKey: "SG.k", FromEmail: "a@x.com"},
			provider: "sendgrid",
		},
		{
			name:     "brevo",
			cfg:      gatewayconfig.GatewayConfig{EmailProvider: gatewayconfig.EmailProviderBrevo, BrevoAPIKey: "xkeysib", FromEmail: "a@x.com", ProviderTimeout: time.Second},
			provider: "brevo",
		},
		{
			name:     "smtp",
			cfg:      gatewayconfig.GatewayConfig{EmailProvider: gatewayconfig.EmailProviderSMTP, SMTPHost: "mail.example.com", SMTPPort: "587", FromEmail: "a@x.com"},
			provider: "smtp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			transport := buildEmailTransport(&cfg, logger, newTestBreakers())
			assert.Equal(t, tt.provider != "", cfg.EmailConfigured())
			if tt.provider == "" {
				assert.Nil(t, transport)
				return
			}
			require.NotNil(t, transport)
			assert.Equal(t, tt.provider, transport.Name())
		})
	}
}

func TestBuildSMSTransportFollowsConfig(t *testing.T) {
	logger := logging.NewDiscardLogger()

	breakers := newTestBreakers()
	assert.Nil(t, buildSMSTransport(&gatewayconfig.GatewayConfig{TwilioAccountSID: "AC1", TwilioAuthToken: " "}, logger, breakers))
	assert.Empty(t, breakers.breakers)

	cfg := &gatewayconfig.GatewayConfig{
		TwilioAccountSID:  "AC1",
		TwilioAuthToken:   "token",
		TwilioPhoneNumber: "+15550000000",
		ProviderTimeout:   5 * time.Second,
	}
	assert.NotNil(t, buildSMSTransport(cfg, logger, breakers))
	require.Len(t, breakers.breakers, 1)
	assert.Equal(t, "twilio", breakers.breakers[0].Name())
}
