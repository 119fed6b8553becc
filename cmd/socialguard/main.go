package main

import (
	"context"
	"time"

	gatewayconfig "socialguard/internal/config"
	"socialguard/internal/dispatch"
	"socialguard/internal/handlers"
	"socialguard/internal/visitors"
	"socialguard/pkg/clients"
	"socialguard/pkg/config"
	"socialguard/pkg/logging"
	"socialguard/pkg/monitoring"
	"socialguard/pkg/server"
	"socialguard/pkg/version"
)

const serviceName = "socialguard"

var dispatchBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)

	cfg := gatewayconfig.LoadGatewayConfig()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	build := version.GetInfo()
	logger.WithFields(logging.Fields{
		"version":    build.Version,
		"git_commit": build.GitCommit,
		"build_date": build.BuildDate,
	}).Info("Starting SocialGuard gateway")

	healthChecker := monitoring.NewHealthChecker(serviceName, build.Version)
	metricsCollector := monitoring.NewMetricsCollector(serviceName, build.Version, version.GetShortCommit())
	breakers := &breakerSet{
		logger:  logger,
		metrics: clients.NewBreakerMetrics(metricsCollector.Registry()),
	}

	emailTransport := buildEmailTransport(cfg, logger, breakers)
	smsTransport := buildSMSTransport(cfg, logger, breakers)

	dispatcher := dispatch.NewDispatcher(logger,
		[]dispatch.Adapter{
			dispatch.NewEmailAdapter(emailTransport),
			dispatch.NewSMSAdapter(smsTransport),
		},
		dispatch.WithWorkers(cfg.DispatchWorkers),
		dispatch.WithSendTimeout(cfg.ProviderTimeout),
		dispatch.WithDeadline(cfg.DispatchDeadline),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	sink, closeSink := buildVisitorSink(ctx, cfg, logger, healthChecker)
	cancel()
	defer closeSink()

	resolver, closeResolver := buildResolver(cfg, logger, breakers, metricsCollector)
	defer closeResolver()

	features := dispatcher.Configured()
	features["visitor_store"] = sink != nil
	for name, ok := range features {
		if !ok {
			logger.WithField("feature", name).Warn("Not configured; requests using it will be refused or skipped")
		}
	}
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(features))
	healthChecker.AddCheck("providers", clients.BreakerHealthCheck(breakers.breakers...))

	recorder := visitors.NewRecorder(resolver, sink, logger,
		visitors.WithMetrics(&visitors.Metrics{
			Events: metricsCollector.NewCounter("visitor_events_total", "Visitor events by outcome", []string{"status"}),
		}),
	)

	dispatchMetrics := &handlers.DispatchMetrics{
		Requests:   metricsCollector.NewCounter("dispatch_requests_total", "Dispatch requests by channel and outcome", []string{"channel", "status"}),
		Recipients: metricsCollector.NewCounter("dispatch_recipients_total", "Dispatched recipients by channel and outcome", []string{"channel", "status"}),
		Duration:   metricsCollector.NewHistogram("dispatch_duration_seconds", "Time to dispatch one request to all recipients", []string{"channel"}, dispatchBuckets),
	}

	app := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)

	dispatchHandler := handlers.NewDispatchHandler(dispatcher, logger, dispatchMetrics)
	rootHandler := handlers.NewRootHandler(recorder)

	app.GET("/", rootHandler.Handle)
	app.POST("/send-email", dispatchHandler.SendEmail)
	app.POST("/send-sms", dispatchHandler.SendSMS)

	serverConfig := server.DefaultConfig(serviceName, cfg.Port)
	serverConfig.WriteTimeout = cfg.WriteTimeout()
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.WithError(err).Error("Server stopped with error")
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := recorder.Close(drainCtx); err != nil {
		logger.WithError(err).Warn("Visitor queue not fully drained")
	}
}
