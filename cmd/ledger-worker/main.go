package main

import (
	"context"
	"errors"
	"os"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		cli.Fatal(nil, "Failed to load env file", err)
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.Fatal(nil, "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	// The worker only reads; it has nothing to announce.
	backendCfg.AMQPURL = ""

	ctx := context.Background()
	b, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	refreshWorker := worker.NewRefreshWorker(b.Coordinator, cfg.CacheMaxAge)
	scheduler := services.NewRefreshScheduler(b.Coordinator, services.RefreshSchedulerConfig{
		Interval: cfg.RefreshInterval,
		MaxAge:   cfg.CacheMaxAge,
	})

	var consumer *amqp.Client
	if cfg.AMQPEnabled() {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize AMQP client", err)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, relying on periodic refresh")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("Failed to stop scheduler", "error", err)
		}
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", "error", err)
			}
		}
		if err := b.Close(); err != nil {
			logger.Warn("Failed to close backend", "error", err)
		}
	})

	logger.Info("Performing startup refresh check...")
	if err := refreshWorker.StartupCheck(ctx); err != nil {
		// Don't exit - the scheduler keeps retrying
		logger.Error("Startup refresh check failed", "error", err)
	}

	if err := scheduler.Start(ctx); err != nil {
		cli.Fatal(logger, "Failed to start refresh scheduler", err)
	}

	if consumer != nil {
		go func() {
			err := consumer.ConsumeRefreshRequests(ctx, refreshWorker.HandleRefreshRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
				os.Exit(1)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
}
