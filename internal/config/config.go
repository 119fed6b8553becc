package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"socialguard/pkg/config"
)

const (
	EmailProviderSendGrid = "sendgrid"
	EmailProviderBrevo    = "brevo"
	EmailProviderSMTP     = "smtp"

	SinkPostgres = "postgres"
	SinkKafka    = "kafka"
	SinkRedis    = "redis"

	GeoProviderIPAPI = "ipapi"
	GeoProviderMMDB  = "mmdb"
	GeoProviderNone  = "none"
)

// GatewayConfig holds all configuration for the notification gateway.
// Every provider is optional: a missing credential disables that channel
// or sink and is reported at startup and on /health.
type GatewayConfig struct {
	Port string `validate:"required,numeric"`

	// Email
	EmailProvider  string `validate:"oneof=sendgrid brevo smtp"`
	SendGridAPIKey string
	BrevoAPIKey    string
	SMTPHost       string
	SMTPPort       string `validate:"omitempty,numeric"`
	SMTPUser       string
	SMTPPassword   string
	FromEmail      string `validate:"omitempty,email"`
	FromName       string

	// SMS
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string `validate:"omitempty,e164"`

	// Dispatch
	DispatchWorkers  int           `validate:"min=1,max=64"`
	ProviderTimeout  time.Duration `validate:"min=1s"`
	DispatchDeadline time.Duration `validate:"min=1s"`

	// Visitor store; empty VisitorSink picks the first configured backend.
	VisitorSink        string `validate:"omitempty,oneof=postgres kafka redis"`
	DatabaseURL        string
	KafkaBrokers       []string
	KafkaVisitorTopic  string
	RedisAddr          string
	RedisPassword      string
	RedisVisitorStream string

	// Geo enrichment
	GeoProvider   string `validate:"oneof=ipapi mmdb none"`
	GeoLookupURL  string `validate:"omitempty,url"`
	GeoIPMMDBPath string
	GeoIPASNPath  string
	GeoCacheTTL   time.Duration
}

// LoadGatewayConfig loads configuration from environment variables.
// Call this after config.LoadEnv() has been called.
func LoadGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		Port: config.GetEnv("PORT", "18040"),

		EmailProvider:  strings.ToLower(config.GetEnv("EMAIL_PROVIDER", EmailProviderSendGrid)),
		SendGridAPIKey: config.GetEnv("SENDGRID_API_KEY", ""),
		BrevoAPIKey:    config.GetEnv("BREVO_API_KEY", ""),
		SMTPHost:       config.GetEnv("SMTP_HOST", ""),
		SMTPPort:       config.GetEnv("SMTP_PORT", "587"),
		SMTPUser:       config.GetEnv("SMTP_USER", ""),
		SMTPPassword:   config.GetEnv("SMTP_PASSWORD", ""),
		FromEmail:      config.GetEnv("FROM_EMAIL", ""),
		FromName:       config.GetEnv("FROM_NAME", "SocialGuard"),

		TwilioAccountSID:  config.GetEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   config.GetEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: config.GetEnv("TWILIO_PHONE_NUMBER", ""),

		DispatchWorkers:  config.GetEnvInt("DISPATCH_WORKERS", 1),
		ProviderTimeout:  config.GetEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		DispatchDeadline: config.GetEnvDuration("DISPATCH_DEADLINE", 90*time.Second),

		VisitorSink:        strings.ToLower(config.GetEnv("VISITOR_SINK", "")),
		DatabaseURL:        config.GetEnv("DATABASE_URL", ""),
		KafkaBrokers:       config.GetEnvList("KAFKA_BROKERS"),
		KafkaVisitorTopic:  config.GetEnv("KAFKA_VISITOR_TOPIC", "visitor_events"),
		RedisAddr:          config.GetEnv("REDIS_ADDR", ""),
		RedisPassword:      config.GetEnv("REDIS_PASSWORD", ""),
		RedisVisitorStream: config.GetEnv("REDIS_VISITOR_STREAM", "socialguard:visitors"),

		GeoProvider:   strings.ToLower(config.GetEnv("GEO_PROVIDER", GeoProviderIPAPI)),
		GeoLookupURL:  config.GetEnv("GEO_LOOKUP_URL", ""),
		GeoIPMMDBPath: config.GetEnv("GEOIP_MMDB_PATH", ""),
		GeoIPASNPath:  config.GetEnv("GEOIP_ASN_MMDB_PATH", ""),
		GeoCacheTTL:   config.GetEnvDuration("GEO_CACHE_TTL", time.Hour),
	}
}

var validate = validator.New()

// Validate checks value shapes only. Missing credentials are not errors.
func (c *GatewayConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var problems []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), redactValue(fe)))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return fmt.Errorf("invalid configuration: %w", err)
}

func redactValue(fe validator.FieldError) interface{} {
	switch fe.Field() {
	case "SendGridAPIKey", "BrevoAPIKey", "SMTPPassword", "TwilioAuthToken", "RedisPassword", "DatabaseURL":
		return "[redacted]"
	}
	return fe.Value()
}

// EmailConfigured reports whether the selected email provider has the
// credentials it needs. Every provider needs FROM_EMAIL.
func (c *GatewayConfig) EmailConfigured() bool {
	if !set(c.FromEmail) {
		return false
	}
	switch c.EmailProvider {
	case EmailProviderSendGrid:
		return set(c.SendGridAPIKey)
	case EmailProviderBrevo:
		return set(c.BrevoAPIKey)
	case EmailProviderSMTP:
		return set(c.SMTPHost)
	}
	return false
}

func (c *GatewayConfig) SMSConfigured() bool {
	return set(c.TwilioAccountSID) && set(c.TwilioAuthToken) && set(c.TwilioPhoneNumber)
}

// WriteTimeout is the HTTP write deadline that still lets a dispatch
// running to DispatchDeadline, plus one last in-flight send, return its
// report.
func (c *GatewayConfig) WriteTimeout() time.Duration {
	return c.DispatchDeadline + c.ProviderTimeout + 15*time.Second
}

func set(v string) bool {
	return strings.TrimSpace(v) != ""
}

// ResolvedVisitorSink returns the sink to use, or "" when none is configured.
func (c *GatewayConfig) ResolvedVisitorSink() string {
	switch c.VisitorSink {
	case SinkPostgres:
		return ifSet(c.DatabaseURL != "", SinkPostgres)
	case SinkKafka:
		return ifSet(len(c.KafkaBrokers) > 0, SinkKafka)
	case SinkRedis:
		return ifSet(c.RedisAddr != "", SinkRedis)
	}
	switch {
	case c.DatabaseURL != "":
		return SinkPostgres
	case len(c.KafkaBrokers) > 0:
		return SinkKafka
	case c.RedisAddr != "":
		return SinkRedis
	}
	return ""
}

func ifSet(ok bool, name string) string {
	if ok {
		return name
	}
	return ""
}
