package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Pesokrava/jewelry_catalog/internal/pkg/logger"
)

const reconcileTimeout = 10 * time.Minute

// RatingReconciler recomputes every reviewed item's rating
type RatingReconciler interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// AncestorReindexer rewrites denormalized category ancestors of every item
type AncestorReindexer interface {
	ReindexAll(ctx context.Context) (int64, error)
}

// Reconciler periodically repairs derived data that best-effort paths may have left stale
type Reconciler struct {
	cron     *cron.Cron
	ratings  RatingReconciler
	reindex  AncestorReindexer
	logger   *logger.Logger
	runCtx   context.Context
	stopRuns context.CancelFunc
}

// NewReconciler creates a reconciler. Overlapping runs are skipped.
func NewReconciler(ratings RatingReconciler, reindex AncestorReindexer, log *logger.Logger) *Reconciler {
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	return &Reconciler{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		ratings:  ratings,
		reindex:  reindex,
		logger:   log,
		runCtx:   ctx,
		stopRuns: cancel,
	}
}

// Start schedules RunOnce on the cron schedule (e.g. "@every 1h" or "0 3 * * *")
func (r *Reconciler) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(r.runCtx, reconcileTimeout)
		defer cancel()
		if err := r.RunOnce(ctx); err != nil {
			r.logger.Error("Scheduled reconciliation failed", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}

	r.cron.Start()
	r.logger.Infof("Reconciler scheduled: %s", schedule)
	return nil
}

// RunOnce re-indexes category ancestors, then recomputes all ratings
func (r *Reconciler) RunOnce(ctx context.Context) error {
	start := time.Now()

	reindexed, err := r.reindex.ReindexAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to reindex ancestors: %w", err)
	}

	updated, err := r.ratings.RecomputeAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to recompute ratings: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"items_reindexed": reindexed,
		"ratings_updated": updated,
		"duration_ms":     time.Since(start).Milliseconds(),
	}).Info("Reconciliation completed")
	return nil
}

// Stop halts scheduling, cancels a running reconciliation and waits for it to return or ctx
func (r *Reconciler) Stop(ctx context.Context) {
	r.stopRuns()
	select {
	case <-r.cron.Stop().Done():
		r.logger.Info("Reconciler stopped")
	case <-ctx.Done():
		r.logger.Warn("Reconciler stop timed out")
	}
}

// cronLogger routes cron's logging into the service logger
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.WithFields(fields(keysAndValues)).Debug("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithFields(fields(keysAndValues)).Error("cron: "+msg, err)
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return out
}
