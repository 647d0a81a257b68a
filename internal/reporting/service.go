package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/shopsight-lab/shopsight/internal/core/funnel"
	"github.com/shopsight-lab/shopsight/internal/core/storage"
)

const (
	dailyPoints   = 30
	weeklyPoints  = 12
	monthlyPoints = 12

	defaultFunnelWindowDays = 30
	maxFunnelWindowDays     = 365

	defaultTopLimit = 10
	maxTopLimit     = 100
)

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid report query")

// Service implements the dashboard query layer. All reads go to the rollup
// buckets except funnels, which walk the raw event log for distinct actors.
type Service struct {
	rollups storage.RollupStore
	events  storage.EventStore
	funnels funnel.FunnelRepository
	nowFn   func() time.Time

	group singleflight.Group
	cache *responseCache
}

// NewService creates a new reporting service. cacheSize <= 0 disables the
// response cache.
func NewService(rollups storage.RollupStore, events storage.EventStore, funnels funnel.FunnelRepository, cacheSize int, cacheTTL time.Duration) *Service {
	if rollups == nil {
		panic("reporting: rollup store must not be nil")
	}
	if events == nil {
		panic("reporting: event store must not be nil")
	}
	if funnels == nil {
		panic("reporting: funnel repository must not be nil")
	}
	return &Service{
		rollups: rollups,
		events:  events,
		funnels: funnels,
		nowFn:   func() time.Time { return time.Now().UTC() },
		cache:   newResponseCache(cacheSize, cacheTTL),
	}
}

// cachedQuery serves a report from the short-TTL cache, collapsing
// concurrent identical queries into one database round trip.
//
// The singleflight leader computes on behalf of every concurrent waiter, so
// the computation runs detached from the leader's request context; one
// client disconnecting must not fail the rest.
func (s *Service) cachedQuery(ctx context.Context, key string, compute func(context.Context) (interface{}, error)) (interface{}, error) {
	if hit := s.cache.get(key); hit != nil {
		return hit, nil
	}

	detached := context.WithoutCancel(ctx)
	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		if hit := s.cache.get(key); hit != nil {
			return hit, nil
		}
		out, err := compute(detached)
		if err != nil {
			return nil, err
		}
		s.cache.put(key, out)
		return out, nil
	})
	return value, err
}

// percentChange implements the dashboard change formula:
// (current-previous)/previous * 100, with previous == 0 resolving to 100
// when current is positive and 0 otherwise.
func percentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			return 100
		}
		return 0
	}
	change, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return change
}

func percentChangeFloat(current, previous float64) float64 {
	return percentChange(decimal.NewFromFloat(current), decimal.NewFromFloat(previous))
}

// dayKey formats a time as the UTC day bucket key.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// sumOverDays resolves a day range against a per-day sum map, treating
// absent days as zero.
func sumOverDays(sums map[string]decimal.Decimal, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if v, ok := sums[dayKey(d)]; ok {
			total = total.Add(v)
		}
	}
	return total
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// today returns the current UTC day truncated to midnight.
func (s *Service) today() time.Time {
	now := s.nowFn()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
