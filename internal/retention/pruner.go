package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopsight-lab/shopsight/internal/core/storage"
)

// Pruner deletes raw events past the retention window in bounded batches,
// reversing each event's rollup contributions before the row goes away.
type Pruner struct {
	store         storage.EventStore
	contribFor    storage.ContributionFn
	retentionDays int
	batchSize     int
	nowFn         func() time.Time
}

func NewPruner(store storage.EventStore, contribFor storage.ContributionFn, retentionDays, batchSize int) *Pruner {
	if store == nil {
		panic("retention: store must not be nil")
	}
	if contribFor == nil {
		panic("retention: contribution fn must not be nil")
	}
	return &Pruner{
		store:         store,
		contribFor:    contribFor,
		retentionDays: retentionDays,
		batchSize:     batchSize,
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}

// Cutoff returns the oldest event time still inside the retention window.
func (p *Pruner) Cutoff() time.Time {
	return p.nowFn().AddDate(0, 0, -p.retentionDays)
}

// PruneOnce runs a single bounded batch. The decrement path recomputes
// contributions with the same pure definitions ingestion used, so bucket
// sums stay consistent with the surviving events. HasMore tells the caller
// whether to re-invoke.
func (p *Pruner) PruneOnce(ctx context.Context) (storage.PruneResult, error) {
	cutoff := p.Cutoff()

	result, err := p.store.PruneBatch(ctx, cutoff, p.batchSize, p.contribFor)
	if err != nil {
		return storage.PruneResult{}, err
	}

	if result.Deleted > 0 {
		slog.Info("[Retention] Prune batch complete",
			"deleted", result.Deleted,
			"has_more", result.HasMore,
			"cutoff", cutoff,
			"retention_days", p.retentionDays,
		)
	}
	return result, nil
}
