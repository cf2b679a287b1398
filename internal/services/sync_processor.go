package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for unsynced entries (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of entries pushed per poll cycle (default: 50)
	BatchSize int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    50,
	}
}

// Pusher sends locally pending entries to the remote ledger.
type Pusher interface {
	PushPending(ctx context.Context, limit int) (int, error)
}

// SyncProcessor drains unsynced entries to the remote ledger in batches.
// A failed batch stays pending and is retried on the next poll.
type SyncProcessor struct {
	pusher Pusher
	config SyncProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(pusher Pusher, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		pusher: pusher,
		config: config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	if p.pusher == nil {
		p.mu.Unlock()
		return fmt.Errorf("sync processor has no pusher")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion. A Stop
// that times out leaves the processor running; calling Stop again waits
// for the same loop to finish.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	if p.stopCh != nil {
		close(p.stopCh)
		p.stopCh = nil
	}
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	if p.doneCh == done {
		p.running = false
		p.doneCh = nil
	}
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	// Process immediately on startup
	p.drain(ctx, stop)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.drain(ctx, stop)
		}
	}
}

// drain pushes full batches until the backlog is empty, a batch fails or
// the processor is asked to stop.
func (p *SyncProcessor) drain(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		n, err := p.SyncOnce(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Sync batch failed, will retry", "error", err)
			return
		}
		if n < p.config.BatchSize {
			return
		}
	}
}

// SyncOnce pushes a single batch and returns how many entries it held.
func (p *SyncProcessor) SyncOnce(ctx context.Context) (int, error) {
	if p.pusher == nil {
		return 0, ErrRemoteDisabled
	}
	n, err := p.pusher.PushPending(ctx, p.config.BatchSize)
	if err != nil {
		if errors.Is(err, ErrRemoteDisabled) {
			return 0, err
		}
		return 0, fmt.Errorf("push batch: %w", err)
	}
	if n > 0 {
		slog.DebugContext(ctx, "Sync batch pushed", "count", n)
	}
	return n, nil
}
