package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopsight-lab/shopsight/internal/core/lockkey"
)

const lockName = "retention-pruner"

// AdvisoryLocker guards the prune job against overlapping runs across
// service instances. A nil locker means single-instance deployment.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (release func(), acquired bool, err error)
}

// Scheduler runs the pruner on a fixed cadence. It is stateless: each tick
// independently drains the eligible backlog.
type Scheduler struct {
	pruner   *Pruner
	locker   AdvisoryLocker
	interval time.Duration
}

func NewScheduler(pruner *Pruner, locker AdvisoryLocker, interval time.Duration) *Scheduler {
	return &Scheduler{
		pruner:   pruner,
		locker:   locker,
		interval: interval,
	}
}

// Start begins periodic pruning. Runs until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Retention] Starting prune scheduler",
		"interval", s.interval,
		"retention_days", s.pruner.retentionDays,
		"batch_size", s.pruner.batchSize,
	)

	// Run initial drain to catch up with any backlog
	s.drainBacklog(ctx)

	for {
		select {
		case <-ticker.C:
			s.drainBacklog(ctx)
		case <-ctx.Done():
			slog.Info("[Retention] Stopping (context cancelled)")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			slog.Info("[Retention] Running final drain before shutdown...")
			s.drainBacklog(shutdownCtx)
			slog.Info("[Retention] Final drain complete")

			return nil
		}
	}
}

// drainBacklog deletes expired batches until none remain. The advisory lock
// makes sure only one instance walks the backlog at a time.
func (s *Scheduler) drainBacklog(ctx context.Context) {
	if s.locker != nil {
		release, acquired, err := s.locker.TryAdvisoryLock(ctx, lockkey.For(lockName))
		if err != nil {
			slog.Error("[Retention] Advisory lock failed", "error", err)
			return
		}
		if !acquired {
			slog.Info("[Retention] Another instance holds the prune lock, skipping run")
			return
		}
		defer release()
	}

	batchCount := 0
	maxConsecutiveBatches := 100 // Safety limit to prevent infinite loop

	for batchCount < maxConsecutiveBatches {
		select {
		case <-ctx.Done():
			slog.Info("[Retention] Drain interrupted by context cancellation",
				"batches_processed", batchCount,
			)
			return
		default:
		}

		result, err := s.pruner.PruneOnce(ctx)
		if err != nil {
			slog.Error("[Retention] Prune batch failed",
				"error", err,
				"batch_number", batchCount+1,
			)
			return
		}

		batchCount++

		if !result.HasMore {
			if batchCount > 1 {
				slog.Info("[Retention] Backlog drained", "total_batches", batchCount)
			}
			return
		}

		slog.Info("[Retention] Backlog detected, continuing to drain",
			"batches_so_far", batchCount,
		)
	}

	slog.Warn("[Retention] Max consecutive batches reached, pausing drain",
		"max_batches", maxConsecutiveBatches,
		"note", "Will resume on next tick",
	)
}
