package webhooks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/zap"
)

// Reconciler periodically fails webhook rows stranded in received, for
// example by a crash between the receipt write and the final write.
type Reconciler struct {
	pipeline   *Pipeline
	interval   time.Duration
	staleAfter time.Duration
	logger     *logging.Service

	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool
}

func NewReconciler(pipeline *Pipeline, interval, staleAfter time.Duration, logger *logging.Service) *Reconciler {
	return &Reconciler{
		pipeline:   pipeline,
		interval:   interval,
		staleAfter: staleAfter,
		logger:     logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the sweep loop. A non-positive interval disables it.
func (r *Reconciler) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	if r.interval <= 0 {
		r.logger.Debug("webhook reconciler disabled")
		close(r.done)
		return
	}

	go r.run()

	r.logger.Info("started webhook reconciler",
		zap.Duration("interval", r.interval),
		zap.Duration("stale_after", r.staleAfter))
}

func (r *Reconciler) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep()
	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

func (r *Reconciler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	if _, err := r.pipeline.ReconcileStale(ctx, r.staleAfter); err != nil {
		r.logger.Error("webhook reconciliation failed", zap.Error(err))
	}
}

// Stop ends the loop and waits for an in-flight sweep, bounded by ctx.
func (r *Reconciler) Stop(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}
	r.once.Do(func() { close(r.stop) })
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
