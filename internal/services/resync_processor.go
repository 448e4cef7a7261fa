package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"energydash/internal/log"
)

// Resyncer is the part of the mirror worker driven by the processor.
type Resyncer interface {
	ResyncIfStale(ctx context.Context) error
}

// ResyncProcessorConfig holds configuration for the resync processor
type ResyncProcessorConfig struct {
	// Interval is how often mirrors are compared with the last commit (default: 5m)
	Interval time.Duration

	// Timeout bounds a single resync run (default: 1m)
	Timeout time.Duration
}

// DefaultResyncProcessorConfig returns sensible defaults
func DefaultResyncProcessorConfig() ResyncProcessorConfig {
	return ResyncProcessorConfig{
		Interval: 5 * time.Minute,
		Timeout:  1 * time.Minute,
	}
}

// ResyncProcessor periodically brings the mirrors up to date with the
// committed snapshot.
type ResyncProcessor struct {
	resyncer Resyncer
	config   ResyncProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewResyncProcessor creates a new resync processor
func NewResyncProcessor(resyncer Resyncer, config ResyncProcessorConfig) *ResyncProcessor {
	return &ResyncProcessor{
		resyncer: resyncer,
		config:   config,
	}
}

// Start begins the resync loop. Returns an error if already running.
func (p *ResyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("resync processor is already running")
	}
	if p.config.Interval <= 0 {
		p.mu.Unlock()
		return fmt.Errorf("resync interval must be positive, got %v", p.config.Interval)
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Resync processor started",
		log.FieldComponent, log.ComponentWorker,
		log.FieldOperation, log.OpStartup,
		"interval", p.config.Interval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ResyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Resync processor stopped gracefully",
			log.FieldComponent, log.ComponentWorker,
			log.FieldOperation, log.OpShutdown)
	case <-ctx.Done():
		slog.WarnContext(ctx, "Resync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *ResyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ResyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Catch up immediately on startup
	p.runOnce(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *ResyncProcessor) runOnce(ctx context.Context) {
	runCtx := ctx
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	if err := p.resyncer.ResyncIfStale(runCtx); err != nil {
		slog.ErrorContext(ctx, "Periodic resync failed",
			log.FieldComponent, log.ComponentWorker,
			log.FieldOperation, log.OpSync,
			log.FieldError, err)
	}
}
