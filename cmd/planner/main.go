package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"planner/internal/cli"
	apphttp "planner/internal/http"
	plog "planner/internal/log"
	"planner/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(plog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	ledger, result := cli.InitLedger(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", plog.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, ledger, apphttp.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger.WithComponent(plog.ComponentHTTP),
	})

	// Without a broker the server pushes to the remote itself.
	var syncer *services.SyncProcessor
	if cfg.SyncEnabled && ledger.RemoteEnabled() && result.AMQP == nil {
		syncer = services.NewSyncProcessor(ledger, services.SyncProcessorConfig{
			PollInterval: cfg.SyncInterval,
			BatchSize:    cfg.SyncBatchSize,
		})
		if err := syncer.Start(ctx); err != nil {
			logger.Error("Failed to start sync processor", plog.FieldError, err)
			os.Exit(1)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting planner server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"remote_enabled", ledger.RemoteEnabled(),
			"amqp_enabled", result.AMQP != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if syncer != nil {
			errs = append(errs, syncer.Stop(shutdownCtx))
		}
		errs = append(errs, srv.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})

	if cfg.RecurringEnabled {
		g.Go(func() error {
			return services.NewRecurringProcessor(ledger, cfg.RecurringInterval).Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", plog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
