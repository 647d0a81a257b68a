package reporting

import (
	"context"
	"fmt"

	"github.com/shopsight-lab/shopsight/internal/core/rollup"
)

// topDefinitions maps the public dimension names onto rollup definitions.
var topDefinitions = map[string]string{
	"products":   rollup.DefProductViews,
	"coupons":    rollup.DefCouponUsage,
	"searches":   rollup.DefSearchQueries,
	"categories": rollup.DefCategoryViews,
}

// Top ranks a dimension by rollup totals over the interval's trailing
// window, descending, ties broken by first-seen order.
func (s *Service) Top(ctx context.Context, dimension, interval string, limit int) (*TopResponse, error) {
	definition, ok := topDefinitions[dimension]
	if !ok {
		return nil, invalidQueryf("invalid dimension: %s (must be products, coupons, searches, or categories)", dimension)
	}

	if interval == "" {
		interval = "monthly"
	}
	var days int
	switch interval {
	case "daily":
		days = 1
	case "weekly":
		days = 7
	case "monthly":
		days = 30
	default:
		return nil, invalidQueryf("invalid interval: %s (must be daily, weekly, or monthly)", interval)
	}

	if limit == 0 {
		limit = defaultTopLimit
	}
	if limit < 1 || limit > maxTopLimit {
		return nil, invalidQueryf("limit must be in [1, %d]", maxTopLimit)
	}

	key := fmt.Sprintf("top:%s:%s:%d:%s", dimension, interval, limit, dayKey(s.today()))
	out, err := s.cachedQuery(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.computeTop(ctx, dimension, definition, interval, days, limit)
	})
	if err != nil {
		return nil, err
	}
	return out.(*TopResponse), nil
}

func (s *Service) computeTop(ctx context.Context, dimension, definition, interval string, days, limit int) (*TopResponse, error) {
	today := s.today()
	from := today.AddDate(0, 0, -(days - 1))

	totals, err := s.rollups.TopDimensions(ctx, definition, dayKey(from), dayKey(today), limit)
	if err != nil {
		return nil, fmt.Errorf("top %s: %w", dimension, err)
	}

	resp := &TopResponse{
		Dimension: dimension,
		Interval:  interval,
		Entries:   make([]TopEntry, 0, len(totals)),
	}
	for _, t := range totals {
		resp.Entries = append(resp.Entries, TopEntry{
			Dimension: t.Dimension,
			Value:     t.Value,
			Events:    t.Events,
		})
	}
	return resp, nil
}
