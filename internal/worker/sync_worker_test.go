package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"planner/internal/amqp"
	"planner/internal/storage"
)

type fakeLedger struct {
	pushed  []string
	removed []string
	pushErr error
	pending int
	calls   int
}

func (f *fakeLedger) PushEntry(ctx context.Context, id string) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, id)
	return nil
}

func (f *fakeLedger) RemoveRemote(ctx context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeLedger) PushPending(ctx context.Context, limit int) (int, error) {
	f.calls++
	n := min(limit, f.pending)
	f.pending -= n
	return n, nil
}

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()
	ledger := &fakeLedger{}
	w := NewSyncWorker(ledger, 10)

	if err := w.HandleMessage(ctx, amqp.NewEntrySyncMessage("a", amqp.OpSync)); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := w.HandleMessage(ctx, amqp.NewEntrySyncMessage("b", amqp.OpDelete)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(ledger.pushed) != 1 || ledger.pushed[0] != "a" || len(ledger.removed) != 1 || ledger.removed[0] != "b" {
		t.Fatalf("pushed=%v removed=%v", ledger.pushed, ledger.removed)
	}
}

func TestHandleMessage_Errors(t *testing.T) {
	ctx := context.Background()

	gone := &fakeLedger{pushErr: fmt.Errorf("get entry a: %w", storage.ErrNotFound)}
	if err := NewSyncWorker(gone, 10).HandleMessage(ctx, amqp.NewEntrySyncMessage("a", amqp.OpSync)); err != nil {
		t.Fatalf("missing entry should be acknowledged, got %v", err)
	}

	boom := errors.New("sheets unavailable")
	failing := &fakeLedger{pushErr: boom}
	if err := NewSyncWorker(failing, 10).HandleMessage(ctx, amqp.NewEntrySyncMessage("a", amqp.OpSync)); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestStartupSyncCheck_DrainsBacklog(t *testing.T) {
	ledger := &fakeLedger{pending: 23}
	w := NewSyncWorker(ledger, 2)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Batches of 10: 10, 10, 3.
	if ledger.pending != 0 || ledger.calls != 3 {
		t.Fatalf("pending=%d calls=%d", ledger.pending, ledger.calls)
	}
}

func TestProcessPendingEntries(t *testing.T) {
	ledger := &fakeLedger{pending: 5}
	if err := NewSyncWorker(ledger, 2).ProcessPendingEntries(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ledger.pending != 3 {
		t.Fatalf("pending = %d, want 3", ledger.pending)
	}
}
