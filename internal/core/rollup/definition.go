package rollup

import (
	v1 "github.com/shopsight-lab/shopsight/internal/api/v1"
	"github.com/shopspring/decimal"
)

// BucketKey identifies one rollup bucket: a UTC day plus an optional
// dimension value (product id, event name, coupon code, funnel step,
// normalized search query, or prefixed actor id).
type BucketKey struct {
	Day       string
	Dimension string
}

// Definition is one declarative rollup over the event stream.
//
// Key and Value must be pure functions of the event only; no clocks, no
// external lookups. The same event always maps to the same key and value no
// matter when or how often it is evaluated; that is what makes idempotent
// re-application at ingestion and the inverse decrement at pruning safe.
type Definition struct {
	// Name identifies the rollup, e.g. "dailyViews", "sales".
	Name string

	// Key maps an event to its bucket. ok=false means the event does not
	// participate in this rollup.
	Key func(evt *v1.Event) (key BucketKey, ok bool)

	// Value is the numeric contribution of a participating event.
	// Usually 1 (counting); a monetary amount for sales and couponUsage.
	Value func(evt *v1.Event) decimal.Decimal
}

// Contribution is one (definition, bucket, value) increment produced by an
// event. Ingestion applies contributions as increments; pruning applies the
// same contributions as decrements.
type Contribution struct {
	Definition string
	Key        BucketKey
	Value      decimal.Decimal
}

// Apply evaluates every definition against the event and returns the full
// set of bucket contributions. This is the single evaluation loop shared by
// the ingestion pipeline and the retention pruner.
func Apply(defs []Definition, evt *v1.Event) []Contribution {
	var contribs []Contribution
	for _, def := range defs {
		key, ok := def.Key(evt)
		if !ok {
			continue
		}
		contribs = append(contribs, Contribution{
			Definition: def.Name,
			Key:        key,
			Value:      def.Value(evt),
		})
	}
	return contribs
}

// one is the standard counting contribution.
func one(_ *v1.Event) decimal.Decimal { return decimal.NewFromInt(1) }
