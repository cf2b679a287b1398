package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"planner/internal/amqp"
	"planner/internal/storage"
)

// LedgerSync is the part of the ledger service the worker drives.
type LedgerSync interface {
	PushEntry(ctx context.Context, id string) error
	RemoveRemote(ctx context.Context, id string) error
	PushPending(ctx context.Context, limit int) (int, error)
}

// SyncWorker mirrors ledger entries to the remote spreadsheet in response
// to AMQP messages.
type SyncWorker struct {
	ledger    LedgerSync
	batchSize int
}

func NewSyncWorker(ledger LedgerSync, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncWorker{ledger: ledger, batchSize: batchSize}
}

// HandleMessage processes a single sync or delete message. Returning an
// error makes the consumer requeue the message.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"entry_id", msg.EntryID,
		"operation", msg.Operation,
		"timestamp", msg.Timestamp)

	switch msg.Operation {
	case amqp.OpSync:
		err := w.ledger.PushEntry(ctx, msg.EntryID)
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted before the worker got to it; the delete message follows.
			slog.WarnContext(ctx, "Entry no longer exists, skipping sync", "entry_id", msg.EntryID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("sync entry: %w", err)
		}
		slog.InfoContext(ctx, "Successfully synced entry", "entry_id", msg.EntryID)
	case amqp.OpDelete:
		if err := w.ledger.RemoveRemote(ctx, msg.EntryID); err != nil {
			return fmt.Errorf("delete remote entry: %w", err)
		}
		slog.InfoContext(ctx, "Successfully deleted remote entry", "entry_id", msg.EntryID)
	default:
		slog.WarnContext(ctx, "Dropping message with unknown operation",
			"entry_id", msg.EntryID,
			"operation", msg.Operation)
	}
	return nil
}

// ProcessPendingEntries pushes one batch of unsynced entries. It is the
// backup path for messages lost while the broker was unreachable.
func (w *SyncWorker) ProcessPendingEntries(ctx context.Context) error {
	n, err := w.ledger.PushPending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("push pending entries: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Processed pending entries", "count", n)
	}
	return nil
}

// StartupSyncCheck drains the unsynced backlog left by worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	total := 0
	for {
		n, err := w.ledger.PushPending(ctx, w.batchSize*5)
		if err != nil {
			return fmt.Errorf("startup sync: %w", err)
		}
		total += n
		if n < w.batchSize*5 {
			break
		}
	}

	if total == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
	} else {
		slog.InfoContext(ctx, "Startup sync completed", "synced", total)
	}
	return nil
}
