package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alxtravel/server/internal/port/outbound"
	"go.uber.org/zap"
)

// ReconcilerConfig contains reconciler configuration.
type ReconcilerConfig struct {
	Interval  time.Duration
	MinAge    time.Duration
	BatchSize int
}

// DefaultReconcilerConfig returns the default reconciler configuration.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Interval:  5 * time.Minute,
		MinAge:    2 * time.Minute,
		BatchSize: 50,
	}
}

// ReconcileResult summarises one reconciliation pass.
type ReconcileResult struct {
	Checked  int
	Resolved int
	Failed   int
}

// Reconciler periodically verifies pending payments whose payers never came back
// to trigger verification themselves.
type Reconciler struct {
	domain    PaymentDomain
	paymentDB outbound.PaymentDatabasePort
	config    ReconcilerConfig
	logger    *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewReconciler creates a new reconciler.
func NewReconciler(domain PaymentDomain, paymentDB outbound.PaymentDatabasePort, config ReconcilerConfig, logger *zap.Logger) *Reconciler {
	defaults := DefaultReconcilerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.MinAge < 0 {
		config.MinAge = defaults.MinAge
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		domain:    domain,
		paymentDB: paymentDB,
		config:    config,
		logger:    logger.Named("payment-reconciler"),
		stopCh:    make(chan struct{}),
	}
}

// Start runs reconciliation passes in the background until Stop is called or ctx ends.
func (r *Reconciler) Start(ctx context.Context) {
	r.logger.Info("starting reconciler",
		zap.Duration("interval", r.config.Interval),
		zap.Duration("min_age", r.config.MinAge),
		zap.Int("batch_size", r.config.BatchSize))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil {
					r.logger.Error("reconcile pass failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop stops the background loop and waits for the current pass to finish.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
	r.logger.Info("reconciler stopped")
}

// RunOnce verifies one batch of stale pending payments.
// Errors for individual payments are logged and do not abort the pass.
func (r *Reconciler) RunOnce(ctx context.Context) (*ReconcileResult, error) {
	cutoff := time.Now().UTC().Add(-r.config.MinAge)
	pending, err := r.paymentDB.ListPending(ctx, cutoff, r.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}

	result := &ReconcileResult{}
	for _, p := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Checked++

		out, err := r.domain.Verify(ctx, p.TransactionID)
		if err != nil {
			result.Failed++
			r.logger.Warn("reconcile verify failed",
				zap.String("transaction_id", p.TransactionID),
				zap.Error(err))
			continue
		}
		if out.Resolved {
			result.Resolved++
		}
	}

	if result.Checked > 0 {
		r.logger.Info("reconcile pass finished",
			zap.Int("checked", result.Checked),
			zap.Int("resolved", result.Resolved),
			zap.Int("failed", result.Failed))
	}
	return result, nil
}
