package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Materializing is the part of the ledger the recurring processor drives.
type Materializing interface {
	Materialize(ctx context.Context, now time.Time) (int, error)
}

// RecurringProcessor periodically expands recurring rules into entries.
type RecurringProcessor struct {
	ledger   Materializing
	interval time.Duration
	now      func() time.Time
}

func NewRecurringProcessor(ledger Materializing, interval time.Duration) *RecurringProcessor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RecurringProcessor{
		ledger:   ledger,
		interval: interval,
		now:      time.Now,
	}
}

// ProcessDue runs one materialization pass for now.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	count, err := p.ledger.Materialize(ctx, now)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		slog.InfoContext(ctx, "Recurring processing complete",
			"entries_created", count,
			"processing_date", now.Format("2006-01-02"))
	}
	return count, nil
}

// Run processes once immediately, then on every tick until ctx is done.
// Failures are logged and retried on the next tick.
func (p *RecurringProcessor) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Recurring processor started", "interval", p.interval)
	if _, err := p.ProcessDue(ctx, p.now()); err != nil {
		slog.ErrorContext(ctx, "Initial recurring processing failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Recurring processor stopped")
			return nil
		case now := <-ticker.C:
			if _, err := p.ProcessDue(ctx, now); err != nil {
				slog.ErrorContext(ctx, "Periodic recurring processing failed",
					"error", err,
					"next_check", now.Add(p.interval).Format("15:04:05"))
			}
		}
	}
}
