package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nbrain-team/paycile/internal/application/service"
)

// MatchingWorker periodically re-runs the batch matching pass so new payments
// get suggestions without waiting for an operator trigger. The pass itself
// skips matched and disputed records, so a scheduled run can never revert an
// operator decision.
type MatchingWorker struct {
	reconService service.ReconciliationService
	logger       *zap.Logger
	interval     time.Duration

	mu        sync.RWMutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewMatchingWorker creates a new matching worker
func NewMatchingWorker(reconService service.ReconciliationService, interval time.Duration, logger *zap.Logger) *MatchingWorker {
	return &MatchingWorker{
		reconService: reconService,
		logger:       logger,
		interval:     interval,
	}
}

// Name returns the worker name
func (w *MatchingWorker) Name() string {
	return "matching_worker"
}

// Start begins the periodic matching loop
func (w *MatchingWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("matching worker is already running")
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true

	go w.run(ctx)

	return nil
}

// Stop halts the loop and waits for the current pass to finish
func (w *MatchingWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (w *MatchingWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Matching worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Matching worker stopped")
			return
		case <-ticker.C:
			updated, err := w.reconService.RunMatchingPass(ctx)
			if err != nil {
				// Cancellation mid-pass still reports the partial count
				w.logger.Error("Scheduled matching pass failed",
					zap.Int("records_updated", updated),
					zap.Error(err))
				continue
			}
			w.logger.Info("Scheduled matching pass completed",
				zap.Int("records_updated", updated))
		}
	}
}
