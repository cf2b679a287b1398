package main

import (
	"os"

	"planner/internal/cli"
	plog "planner/internal/log"
	"planner/internal/services"
)

// recurring-worker materializes due recurring rules on a fixed interval.
// Entries it creates are published to the broker when one is configured,
// so planner-worker mirrors them to the spreadsheet.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(plog.ComponentRecurring)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	ledger, result := cli.InitLedger(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", plog.FieldError, err)
		}
	}()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"backend", cfg.DataBackend,
		"amqp_enabled", result.AMQP != nil)

	if err := services.NewRecurringProcessor(ledger, cfg.RecurringInterval).Run(ctx); err != nil {
		logger.Error("Recurring processor failed", plog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Recurring worker stopped")
}
