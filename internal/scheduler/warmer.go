package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/domain"
)

// Checker runs one full aggregation.
type Checker interface {
	CheckAll(ctx context.Context) domain.AggregationResult
}

// Warmer refreshes the result cache in the background so requests mostly
// hit fresh entries.
type Warmer struct {
	Logger   *zap.Logger
	Checker  Checker
	Interval time.Duration
}

func NewWarmer(logger *zap.Logger, checker Checker, interval time.Duration) *Warmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval < 0 {
		interval = 0
	}
	return &Warmer{Logger: logger, Checker: checker, Interval: interval}
}

// Run does an immediate pass, then one per tick until ctx is cancelled.
// A zero interval disables the warmer.
func (w *Warmer) Run(ctx context.Context) {
	if w.Interval == 0 {
		w.Logger.Info("warmer_disabled")
		return
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("warmer_stopped")
			return
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Warmer) runOnce(ctx context.Context) {
	res := w.Checker.CheckAll(ctx)
	w.Logger.Debug("warmer_pass",
		zap.String("status", string(res.Status)),
		zap.Int("services", len(res.Services)),
		zap.Int("failed", len(res.FailedServices)),
	)
}
