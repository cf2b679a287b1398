package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"planner/internal/cli"
	plog "planner/internal/log"
	"planner/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(plog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for planner-worker")
		os.Exit(1)
	}
	if !cfg.HasGoogleCredentials() {
		logger.Error("Google service account credentials are required for planner-worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	ledger, result := cli.InitLedger(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", plog.FieldError, err)
		}
	}()
	if result.AMQP == nil {
		logger.Error("AMQP broker unreachable", "exchange", cfg.AMQPExchange)
		os.Exit(1)
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend does not share entries with the server; use sqlite")
	}

	syncWorker := worker.NewSyncWorker(ledger, cfg.SyncBatchSize)

	logger.Info("Performing startup sync check")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		// Not fatal: the periodic pass retries.
		logger.Error("Startup sync check failed", plog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := result.AMQP.ConsumeEntrySync(gctx, syncWorker.HandleMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := syncWorker.ProcessPendingEntries(gctx); err != nil {
					logger.Error("Periodic sync failed", plog.FieldError, err)
				}
			}
		}
	})

	logger.Info("Worker started",
		"queue", cfg.AMQPQueue,
		"sync_interval", cfg.SyncInterval,
		"batch_size", cfg.SyncBatchSize)

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", plog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
