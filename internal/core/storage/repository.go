package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/shopsight-lab/shopsight/internal/api/v1"
	"github.com/shopsight-lab/shopsight/internal/core/rollup"
	"github.com/shopspring/decimal"
)

// ErrDuplicate is returned when an event with the same id already exists.
// The caller may treat it as success: contributions are (re-)applied
// idempotently before the error is returned.
var ErrDuplicate = errors.New("event already exists")

// ContributionFn recomputes an event's rollup contributions. Ingestion and
// pruning pass the same pure evaluation loop (rollup.Apply over
// rollup.Definitions) so increments and decrements always touch the same
// buckets with the same values.
type ContributionFn func(evt *v1.Event) []rollup.Contribution

// PruneResult reports one retention batch.
type PruneResult struct {
	Deleted int  `json:"deleted"`
	HasMore bool `json:"has_more"`
}

// EventStore is the write side: the append-only event log plus the
// operations that mutate it (identity stitching, retention pruning).
type EventStore interface {
	// AppendEvent persists the event and applies every contribution to its
	// rollup bucket in one transaction. A concurrent reader never observes
	// the event without its contributions, or vice versa.
	//
	// Returns ErrDuplicate if an event with the same id was already stored;
	// in that case any contributions missing their idempotency marker are
	// still applied before returning, so a retried ingestion converges to
	// exactly-once bucket state.
	AppendEvent(ctx context.Context, evt *v1.Event, contribs []rollup.Contribution) error

	// ListEvents returns the most recent events for one actor, newest first.
	// Exactly one of userID/anonymousID is set.
	ListEvents(ctx context.Context, userID, anonymousID string, limit int) ([]*v1.Event, error)

	// LinkIdentity sets user_id on all events recorded under anonymousID
	// that have no authenticated identity yet. Returns the number of events
	// re-attributed. Idempotent: a second call matches zero events.
	//
	// Rollup contributions are intentionally NOT re-keyed; historical
	// activeUsers buckets keep the anonymous dimension.
	LinkIdentity(ctx context.Context, anonymousID, userID string) (int64, error)

	// DistinctActors returns the set of prefixed actor ids that emitted the
	// named event inside [from, to). propertyKey/propertyValue optionally
	// narrow the match on one properties field (used for funnel stages with
	// a step filter); empty propertyKey means no property filter.
	DistinctActors(ctx context.Context, eventName, propertyKey, propertyValue string, from, to time.Time) (map[string]struct{}, error)

	// PruneBatch deletes up to limit events older than cutoff, oldest first,
	// decrementing every rollup bucket each event contributed to before the
	// event row is removed; all in one transaction. A missing bucket at
	// decrement time is logged and skipped, never an error.
	PruneBatch(ctx context.Context, cutoff time.Time, limit int, contribFor ContributionFn) (PruneResult, error)
}

// DimensionTotal is one ranked entry of a top-N query.
type DimensionTotal struct {
	Dimension string
	Value     decimal.Decimal
	Events    int64
}

// RollupStore is the read side over the incrementally-maintained buckets.
// All methods are read-only; day bounds are inclusive YYYY-MM-DD strings.
type RollupStore interface {
	// SumByDay returns per-day accumulator sums for a definition.
	// Days with no bucket are absent from the map (resolve to zero).
	SumByDay(ctx context.Context, definition, fromDay, toDay string) (map[string]decimal.Decimal, error)

	// SumRange returns the total accumulator sum across the day range.
	SumRange(ctx context.Context, definition, fromDay, toDay string) (decimal.Decimal, error)

	// SumByDimension returns the accumulator sum for one dimension across
	// the day range (e.g. the "cart_item_added" slice of cartEvents).
	SumByDimension(ctx context.Context, definition, fromDay, toDay, dimension string) (decimal.Decimal, error)

	// CountRowsByDay returns per-day bucket ROW counts. This is the unique
	// counting read for activeUsers: each (day, actor) pair owns one row, so
	// counting rows yields distinct actors. Summing values would count events.
	CountRowsByDay(ctx context.Context, definition, fromDay, toDay string) (map[string]int64, error)

	// CountDistinctDimensions counts distinct dimension values across a day
	// range, optionally restricted to a dimension prefix (e.g. "user:" for
	// authenticated-only DAU/WAU/MAU). Empty prefix matches everything.
	CountDistinctDimensions(ctx context.Context, definition, fromDay, toDay, dimensionPrefix string) (int64, error)

	// TopDimensions ranks dimensions by total accumulator value descending,
	// ties broken by first-seen order, limited to at most limit entries.
	TopDimensions(ctx context.Context, definition, fromDay, toDay string, limit int) ([]DimensionTotal, error)
}
