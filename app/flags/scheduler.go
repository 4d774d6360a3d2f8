package flags

import (
	"context"
	"log/slog"
	"time"

	"github.com/thabzzzzz/hardwarestorefront-sub000/metrics"
	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

// DefaultInterval runs the reconciliation weekly.
const DefaultInterval = 7 * 24 * time.Hour

// Reconciler recomputes product flags for the whole catalog.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (models.FlagCounts, error)
}

// Scheduler runs the flag reconciliation on a fixed interval.
type Scheduler struct {
	reconciler Reconciler
	interval   time.Duration
	logger     *slog.Logger
}

func NewScheduler(r Reconciler, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{reconciler: r, interval: interval, logger: logger}
}

// RunOnce reconciles every product and logs the resulting counts.
func (s *Scheduler) RunOnce(ctx context.Context) (models.FlagCounts, error) {
	started := time.Now()
	counts, err := s.reconciler.ReconcileAll(ctx)
	metrics.RecordReconcile(err)
	if err != nil {
		s.logger.Error("flag reconciliation failed", "error", err)
		return counts, err
	}
	s.logger.Info("flag reconciliation finished",
		"featured", counts.Featured,
		"popular", counts.Popular,
		"new", counts.New,
		"duration", time.Since(started))
	return counts, nil
}

// Run reconciles immediately and then on every tick until ctx is done.
// Failures are logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("flag reconciliation scheduled", "interval", s.interval)
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
