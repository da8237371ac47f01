package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apigw-exporter/internal/collector"
	"apigw-exporter/internal/config"
	"apigw-exporter/internal/gateway"
	"apigw-exporter/internal/logger"
	zapfactory "apigw-exporter/internal/logger/zap"
	"apigw-exporter/internal/registry"
	"apigw-exporter/internal/server"
	"apigw-exporter/internal/telemetry"

	"github.com/joho/godotenv"
)

var defaultConfigPath = "config/exporter.yaml"

func main() {
	// Parse command-line flags
	configPath := flag.String("config", defaultConfigPath, "path to configuration file (optional)")
	flag.Parse()

	// Pick up a local .env before reading the environment
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
	}

	// Validate configuration
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Initialize logger
	var lgr logger.Logger
	if cfg.Logger.Active {
		zapLog, err := zapfactory.New(cfg.Logger)
		if err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
		defer func() { _ = zapLog.Sync() }()
		lgr = zapfactory.NewZapAdapter(zapLog)
	} else {
		lgr = &logger.NopLogger{}
	}
	lgr = lgr.Named("exporter").With(
		logger.F("api_id", cfg.AWS.APIID),
		logger.F("stage", cfg.AWS.Stage))

	cfg.LogConfig(lgr)

	// Initialize telemetry
	shutdown := telemetry.InitTracer(cfg.Telemetry, "apigw-exporter")
	defer shutdown(context.Background())

	// Initialize AWS clients
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	cwClient, gwClient, err := gateway.NewAWSClients(ctx, cfg.AWS)
	cancel()
	if err != nil {
		lgr.Error("failed to initialize AWS clients", logger.F("err", err))
		os.Exit(1)
	}
	lgr.Debug("initialized AWS clients", logger.F("region", cfg.AWS.Region))

	source := gateway.NewCloudWatchSource(cwClient, cfg.AWS.APIID, cfg.AWS.Stage, lgr.Named("cloudwatch"))
	lister := gateway.NewAPIRouteLister(gwClient, cfg.AWS.APIID, lgr.Named("routes"))

	// Initialize gauge registry
	reg := registry.New(lgr.Named("registry"))
	lgr.Debug("initialized gauge registry")

	// Initialize collector
	coll := collector.New(lister, source, reg,
		collector.WithWorkers(cfg.Exporter.MaxWorkers),
		collector.WithLogger(lgr.Named("collector")),
	)
	lgr.Info("initialized collector", logger.F("max_workers", cfg.Exporter.MaxWorkers))

	// Initialize scrape server
	scrape := server.NewScrapeServer(reg, coll, lister, cfg.Exporter.Port, lgr.Named("http-server"))
	lgr.Debug("initialized scrape server", logger.F("port", cfg.Exporter.Port))

	// Run scrape server in background
	httpErr := make(chan error, 1)
	go func() { httpErr <- scrape.Start() }()

	// Setup signal handler
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the refresh loop
	interval := time.Duration(cfg.Exporter.RefreshInterval) * time.Second
	sched := collector.NewScheduler(coll, interval, lgr.Named("scheduler"))
	loopDone := make(chan struct{})
	go func() {
		sched.RunLoop(ctx)
		close(loopDone)
	}()
	lgr.Info("refresh loop started", logger.F("interval", interval.String()))

	// Wait for termination
	select {
	case <-ctx.Done():
		lgr.Info("shutdown signal received, stopping gracefully...")

		stop()
		<-loopDone

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := scrape.Stop(shutdownCtx); err != nil {
			lgr.Warn("scrape server shutdown error", logger.F("err", err))
		}
		cancel()
		lgr.Info("exporter stopped")

	case err := <-httpErr:
		// Bind failure or unexpected server exit: fatal, no retry.
		lgr.Error("scrape server terminated unexpectedly", logger.F("err", err))
		stop()
		<-loopDone
		os.Exit(1)
	}
}
