package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"feed_ingestor/internal/config"
	"feed_ingestor/internal/feed"
	"feed_ingestor/internal/pipeline"
	"feed_ingestor/internal/publisher"
	"feed_ingestor/internal/scheduler"
	"feed_ingestor/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	runOnce := flag.Bool("once", false, "run a single ingestion pass and exit")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Publishing is optional; without it promoted articles stay
	// database-only.
	var pub pipeline.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	// Initialize stores
	sourceStore := postgres.NewSourceStore(db)
	ruleStore := postgres.NewRuleStore(db)
	rawItemStore := postgres.NewRawItemStore(db)
	articleStore := postgres.NewArticleStore(db)
	feedErrorStore := postgres.NewFeedErrorStore(db)
	fetchLogStore := postgres.NewFetchLogStore(db)

	fetcher := feed.NewFetcher(feed.FetcherConfig{
		Timeout:     cfg.Fetch.Timeout,
		MaxAttempts: cfg.Fetch.MaxAttempts,
		Backoff:     cfg.Fetch.Backoff,
		UserAgent:   cfg.Fetch.UserAgent,
	}, logger)

	pipe := pipeline.New(
		fetcher,
		sourceStore,
		ruleStore,
		rawItemStore,
		articleStore,
		feedErrorStore,
		fetchLogStore,
		pub,
		logger,
		pipeline.Config{
			BatchSize:       cfg.Fetch.BatchSize,
			PromotionWindow: cfg.Pipeline.PromotionWindow,
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *runOnce {
		if _, err := pipe.Run(ctx); err != nil {
			logger.Error("ingestion run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("starting feed ingestor",
		"interval", cfg.Pipeline.Interval,
		"batch_size", cfg.Fetch.BatchSize,
		"promotion_window", cfg.Pipeline.PromotionWindow,
	)

	sched := scheduler.NewScheduler(pipe, cfg.Pipeline.Interval, logger)
	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
