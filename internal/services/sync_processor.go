package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"atlas/internal/storage"
)

// SyncProcessorConfig holds configuration for the sync sweep.
type SyncProcessorConfig struct {
	// PollInterval is how often to look for rows left pending (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of rows republished per sweep (default: 10)
	BatchSize int
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
	}
}

// SyncProcessor periodically republishes sync messages for rows whose latest
// version never reached the mirror, e.g. because the broker was down when
// they were written or the mirror rejected them.
type SyncProcessor struct {
	tracker   storage.SyncTracker
	publisher SyncPublisher
	config    SyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(tracker storage.SyncTracker, publisher SyncPublisher, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		tracker:   tracker,
		publisher: publisher,
		config:    config,
	}
}

// Start begins the sweep loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for it to finish or ctx to expire.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.Sweep(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep republishes one batch of pending rows and returns how many were sent.
func (p *SyncProcessor) Sweep(ctx context.Context) int {
	pending, err := p.tracker.PendingSync(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending sync records", "error", err)
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	sent := 0
	for _, rec := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := p.publisher.PublishSync(ctx, rec.Kind, rec.ID); err != nil {
			slog.WarnContext(ctx, "Failed to republish pending record",
				"kind", rec.Kind, "id", rec.ID, "version", rec.Version, "error", err)
			continue
		}
		sent++
	}

	slog.InfoContext(ctx, "Sync sweep completed", "pending", len(pending), "published", sent)
	return sent
}
