package rollup

import (
	"strings"

	v1 "github.com/shopsight-lab/shopsight/internal/api/v1"
	"github.com/shopspring/decimal"
)

// Event names produced by the storefront.
const (
	EventPageViewed        = "page_viewed"
	EventProductViewed     = "product_viewed"
	EventCategoryViewed    = "category_viewed"
	EventCartItemAdded     = "cart_item_added"
	EventCartItemRemoved   = "cart_item_removed"
	EventCartViewed        = "cart_viewed"
	EventCheckoutStarted   = "checkout_started"
	EventCheckoutStep      = "checkout_step_viewed"
	EventOrderCompleted    = "order_completed"
	EventCouponApplied     = "coupon_applied"
	EventSearchPerformed   = "search_performed"
)

// Rollup definition names.
const (
	DefDailyViews     = "dailyViews"
	DefActiveUsers    = "activeUsers"
	DefProductViews   = "productViews"
	DefCartEvents     = "cartEvents"
	DefCheckoutFunnel = "checkoutFunnel"
	DefSales          = "sales"
	DefCouponUsage    = "couponUsage"
	DefCategoryViews  = "categoryViews"
	DefSearchQueries  = "searchQueries"
)

// Checkout funnel stage labels synthesized from event names.
const (
	FunnelStepStarted   = "started"
	FunnelStepCompleted = "completed"
)

// Definitions is the static, ordered table of all rollups maintained over the
// event stream. Ingestion and pruning both walk this table; there is no
// plugin registry; a plain list of pure functions is enough.
var Definitions = []Definition{
	{
		Name: DefDailyViews,
		Key: func(evt *v1.Event) (BucketKey, bool) {
			if evt.Name != EventPageViewed {
				return BucketKey{}, false
			}
			return BucketKey{Day: evt.Day()}, true
		},
		Value: one,
	},
	{
		// activeUsers counts DISTINCT actors, not events: each (day, actor)
		// pair owns at most one bucket row regardless of how many events the
		// actor generated that day. The bucket row is the distinctness
		// witness; readers must count ROWS, never sum values. Summing would
		// silently turn DAU/WAU/MAU into event counts.
		Name: DefActiveUsers,
		Key: func(evt *v1.Event) (BucketKey, bool) {
			actor := evt.ActorID()
			if actor == "" {
				return BucketKey{}, false
			}
			return BucketKey{Day: evt.Day(), Dimension: actor}, true
		},
		Value: one,
	},
	{
		Name: DefProductViews,
		Key: func(evt *v1.Event) (BucketKey, bool) {
			if evt.Name != EventProductViewed {
				return BucketKey{}, false
			}
			productID := propString(evt.Properties, "productId")
			if productID == "" {
				return BucketKey{}, false
			}
			return BucketKey{Day: evt.Day(), Dimension: productID}, true
		},
		Value: one,
	},
	{
		Name: DefCartEvents,
		Key: func(evt *v1.Event) (BucketKey, bool) {
			switch evt.Name {
			case EventCartItemAdded, EventCartItemRemoved, EventCartViewed:
				return BucketKey{Day: evt.Day(), Dimension: evt.Name}, true
			}
			return BucketKey{}, false
		},
		Value: one,
	},
	{
		Name: DefCheckoutFunnel,
		Key: func(evt *v1.Event) (BucketKey, bool) {
			switch evt.Name {
			case EventCheckoutStarted:
				return BucketKey{Day: evt.Day(), Dimension: FunnelStepStarted}, true
			case EventOrderCompleted:
				return BucketKey{Day: evt.Day(), Dimension: FunnelStepCompleted}, true
			case EventCheckoutStep:
				step := propString(evt.Properties, "step")
				if step == "" {
					return BucketKey{}, false
				}
				return BucketKey{Day: evt.Day(), Dimension: step}, true
			}
			return BucketKey{}, false
		},
		Value: one,
	},
	{
		Name: DefSales,
		Key: func(evt *v1.Event) (BucketKey, bool) {
			if evt.Name != EventOrderCompleted {
				return BucketKey{}, false
			}
			return BucketKey{Day: evt.Day()}, true
		},
		Value: func(evt *v1.Event) decimal.Decimal {
			return ExtractDecimal(evt.Properties, "total")
		},
	},
	{
		Name: DefCouponUsage,
		Key: func(evt *v1.Event) (BucketKey, bool) {
			if evt.Name != EventCouponApplied {
				return BucketKey{}, false
			}
			if !propBool(evt.Properties, "success") {
				return BucketKey{}, false
			}
			code := propString(evt.Properties, "couponCode")
			if code == "" {
				return BucketKey{}, false
			}
			return BucketKey{Day: evt.Day(), Dimension: code}, true
		},
		Value: func(evt *v1.Event) decimal.Decimal {
			return ExtractDecimal(evt.Properties, "discountAmount")
		},
	},
	{
		Name: DefCategoryViews,
		Key: func(evt *v1.Event) (BucketKey, bool) {
			if evt.Name != EventCategoryViewed {
				return BucketKey{}, false
			}
			categoryID := propString(evt.Properties, "categoryId")
			if categoryID == "" {
				return BucketKey{}, false
			}
			return BucketKey{Day: evt.Day(), Dimension: categoryID}, true
		},
		Value: one,
	},
	{
		Name: DefSearchQueries,
		Key: func(evt *v1.Event) (BucketKey, bool) {
			if evt.Name != EventSearchPerformed {
				return BucketKey{}, false
			}
			query := NormalizeQuery(propString(evt.Properties, "query"))
			if query == "" {
				return BucketKey{}, false
			}
			return BucketKey{Day: evt.Day(), Dimension: query}, true
		},
		Value: one,
	},
}

// NormalizeQuery canonicalizes a search query for bucketing:
// lower-cased and trimmed.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
