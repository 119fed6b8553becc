package main

import (
	"context"

	gatewayconfig "socialguard/internal/config"
	"socialguard/internal/dispatch"
	"socialguard/internal/store"
	"socialguard/internal/visitors"
	"socialguard/pkg/cache"
	"socialguard/pkg/clients"
	"socialguard/pkg/database"
	"socialguard/pkg/email"
	"socialguard/pkg/geoip"
	"socialguard/pkg/kafka"
	"socialguard/pkg/logging"
	"socialguard/pkg/monitoring"
	"socialguard/pkg/redis"
	"socialguard/pkg/sms"

	goredis "github.com/redis/go-redis/v9"
)

// breakerSet builds provider breakers that share logging and metrics and
// remembers them for the health check.
type breakerSet struct {
	logger   logging.Logger
	metrics  *clients.BreakerMetrics
	breakers []*clients.CircuitBreaker
}

func (s *breakerSet) config(name string) clients.CircuitBreakerConfig {
	cfg := clients.DefaultCircuitBreakerConfig(name)
	cfg.Logger = s.logger
	cfg.OnStateChange = s.metrics.Callback()
	return cfg
}

func (s *breakerSet) breaker(name string) *clients.CircuitBreaker {
	cb := clients.NewCircuitBreaker(s.config(name))
	s.breakers = append(s.breakers, cb)
	return cb
}

// buildEmailTransport returns nil when the selected provider lacks credentials.
func buildEmailTransport(cfg *gatewayconfig.GatewayConfig, logger logging.Logger, breakers *breakerSet) dispatch.EmailSender {
	if !cfg.EmailConfigured() {
		return nil
	}
	from := email.Identity{Address: cfg.FromEmail, Name: cfg.FromName}

	var (
		transport dispatch.EmailSender
		err       error
	)
	switch cfg.EmailProvider {
	case gatewayconfig.EmailProviderSendGrid:
		var t *email.SendGridTransport
		t, err = email.NewSendGridTransport(cfg.SendGridAPIKey, from,
			email.WithSendGridBreaker(breakers.breaker("sendgrid")))
		if err == nil {
			transport = t
		}
	case gatewayconfig.EmailProviderBrevo:
		var t *email.BrevoTransport
		t, err = email.NewBrevoTransport(cfg.BrevoAPIKey, from,
			email.WithBrevoHTTPClient(clients.NewHTTPClient(cfg.ProviderTimeout)),
			email.WithBrevoExecutor(clients.NewHTTPExecutor(breakers.config("brevo"))))
		if err == nil {
			transport = t
		}
	case gatewayconfig.EmailProviderSMTP:
		var t *email.SMTPTransport
		t, err = email.NewSMTPTransport(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     from,
		}, email.WithSMTPBreaker(breakers.breaker("smtp")))
		if err == nil {
			transport = t
		}
	}

	if err != nil {
		logger.WithError(err).WithField("provider", cfg.EmailProvider).Error("Failed to initialise email transport")
		return nil
	}
	if transport != nil {
		logger.WithField("provider", transport.Name()).Info("Email channel configured")
	}
	return transport
}

func buildSMSTransport(cfg *gatewayconfig.GatewayConfig, logger logging.Logger, breakers *breakerSet) dispatch.SMSSender {
	if !cfg.SMSConfigured() {
		return nil
	}
	t, err := sms.NewTwilioTransport(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber,
		sms.WithBreaker(breakers.breaker("twilio")),
		sms.WithTimeout(cfg.ProviderTimeout))
	if err != nil {
		logger.WithError(err).Error("Failed to initialise SMS transport")
		return nil
	}
	logger.WithField("provider", t.Name()).Info("SMS channel configured")
	return t
}

// buildVisitorSink connects the configured store. A connection failure is
// logged and leaves visits unpersisted; it never stops the gateway.
func buildVisitorSink(ctx context.Context, cfg *gatewayconfig.GatewayConfig, logger logging.Logger, health *monitoring.HealthChecker) (visitors.Sink, func()) {
	noop := func() {}

	switch cfg.ResolvedVisitorSink() {
	case gatewayconfig.SinkPostgres:
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.DatabaseURL
		db, err := database.Connect(ctx, dbCfg, logger)
		if err != nil {
			logger.WithError(err).Error("Visitor store unavailable")
			return nil, noop
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			logger.WithError(err).Warn("Could not ensure visitor_logs schema")
		}
		health.AddCheck("database", monitoring.DatabaseHealthCheck(db))
		return store.NewPostgresSink(db), func() { _ = db.Close() }

	case gatewayconfig.SinkKafka:
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, "socialguard", logger)
		if err != nil {
			logger.WithError(err).Error("Visitor store unavailable")
			return nil, noop
		}
		health.AddCheck("kafka", monitoring.PingHealthCheck("kafka", producer))
		return store.NewKafkaSink(producer, cfg.KafkaVisitorTopic), func() { _ = producer.Close() }

	case gatewayconfig.SinkRedis:
		client, err := redis.NewUniversalClient(ctx, redis.Config{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
		})
		if err != nil {
			logger.WithError(err).Error("Visitor store unavailable")
			return nil, noop
		}
		health.AddCheck("redis", monitoring.PingHealthCheck("redis", redisPinger{client}))
		return store.NewRedisSink(client, cfg.RedisVisitorStream), func() { _ = client.Close() }
	}

	return nil, noop
}

// redisPinger adapts go-redis's *StatusCmd ping to monitoring.Pinger.
type redisPinger struct {
	client goredis.UniversalClient
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// buildResolver picks the geo backend and wraps it in an in-memory cache.
func buildResolver(cfg *gatewayconfig.GatewayConfig, logger logging.Logger, breakers *breakerSet, metrics *monitoring.MetricsCollector) (geoip.Resolver, func()) {
	noop := func() {}

	var next geoip.Resolver
	closeFn := noop

	switch cfg.GeoProvider {
	case gatewayconfig.GeoProviderNone:
		logger.Info("Geo enrichment disabled")
		return geoip.NoopResolver{}, noop

	case gatewayconfig.GeoProviderMMDB:
		resolver, err := geoip.NewMMDBResolver(cfg.GeoIPMMDBPath, cfg.GeoIPASNPath)
		if err != nil {
			logger.WithError(err).Error("Failed to open GeoIP database; visitors will be recorded without location")
			return geoip.NoopResolver{}, noop
		}
		if resolver == nil {
			logger.Warn("GEOIP_MMDB_PATH not set or missing; visitors will be recorded without location")
			return geoip.NoopResolver{}, noop
		}
		logger.WithFields(logging.Fields{
			"provider":             resolver.Provider(),
			"requires_attribution": resolver.RequiresAttribution(),
			"attribution":          resolver.AttributionText(),
		}).Info("GeoIP database loaded")
		next = resolver
		closeFn = func() { _ = resolver.Close() }

	default:
		opts := []geoip.IPAPIOption{
			geoip.WithIPAPIExecutor(clients.NewHTTPExecutor(breakers.config("ipapi"))),
			geoip.WithIPAPILogger(logger),
		}
		if cfg.GeoLookupURL != "" {
			opts = append(opts, geoip.WithIPAPIBaseURL(cfg.GeoLookupURL))
		}
		next = geoip.NewIPAPIClient(opts...)
	}

	lookups := metrics.NewCounter("geo_cache_total", "Geo lookup cache results", []string{"result"})
	entries := metrics.NewGauge("geo_cache_entries", "Addresses held in the geo lookup cache", nil)

	var cached *geoip.CachedResolver
	hooks := cache.Hooks{
		OnHit:  func() { lookups.WithLabelValues("hit").Inc() },
		OnMiss: func() { lookups.WithLabelValues("miss").Inc() },
		OnStore: func(ok bool) {
			if !ok {
				lookups.WithLabelValues("unknown").Inc()
			}
			entries.WithLabelValues().Set(float64(cached.Len()))
		},
	}

	cached = geoip.NewCachedResolver(next, cfg.GeoCacheTTL, hooks)
	return cached, closeFn
}
