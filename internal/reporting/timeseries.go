package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopsight-lab/shopsight/internal/core/rollup"
)

// Timeseries returns the N most recent buckets for a metric, oldest first.
// Intervals: daily (30 one-day buckets), weekly (12 seven-day buckets),
// monthly (12 calendar-month buckets). Buckets with no data are zero-filled.
func (s *Service) Timeseries(ctx context.Context, interval, metric string) (*TimeseriesResponse, error) {
	switch interval {
	case "daily", "weekly", "monthly":
	default:
		return nil, invalidQueryf("invalid interval: %s (must be daily, weekly, or monthly)", interval)
	}
	switch metric {
	case "visits", "unique_actors":
	default:
		return nil, invalidQueryf("invalid metric: %s (must be visits or unique_actors)", metric)
	}

	key := fmt.Sprintf("timeseries:%s:%s:%s", interval, metric, dayKey(s.today()))
	out, err := s.cachedQuery(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.computeTimeseries(ctx, interval, metric)
	})
	if err != nil {
		return nil, err
	}
	return out.(*TimeseriesResponse), nil
}

type bucketSpan struct {
	label string
	from  time.Time
	to    time.Time // inclusive last day
}

// bucketSpans lays out the report buckets oldest first, ending at today.
func (s *Service) bucketSpans(interval string) []bucketSpan {
	today := s.today()

	switch interval {
	case "daily":
		spans := make([]bucketSpan, 0, dailyPoints)
		for i := dailyPoints - 1; i >= 0; i-- {
			d := today.AddDate(0, 0, -i)
			spans = append(spans, bucketSpan{label: dayKey(d), from: d, to: d})
		}
		return spans
	case "weekly":
		spans := make([]bucketSpan, 0, weeklyPoints)
		for i := weeklyPoints - 1; i >= 0; i-- {
			to := today.AddDate(0, 0, -7*i)
			from := to.AddDate(0, 0, -6)
			spans = append(spans, bucketSpan{label: dayKey(from), from: from, to: to})
		}
		return spans
	default: // monthly
		spans := make([]bucketSpan, 0, monthlyPoints)
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i := monthlyPoints - 1; i >= 0; i-- {
			from := first.AddDate(0, -i, 0)
			to := from.AddDate(0, 1, -1)
			if to.After(today) {
				to = today
			}
			spans = append(spans, bucketSpan{label: from.Format("2006-01"), from: from, to: to})
		}
		return spans
	}
}

func (s *Service) computeTimeseries(ctx context.Context, interval, metric string) (*TimeseriesResponse, error) {
	spans := s.bucketSpans(interval)
	resp := &TimeseriesResponse{
		Interval: interval,
		Metric:   metric,
		Points:   make([]TimeseriesPoint, 0, len(spans)),
	}

	if metric == "visits" {
		// One range query covers every bucket; absent days are zero.
		sums, err := s.rollups.SumByDay(ctx, rollup.DefDailyViews, dayKey(spans[0].from), dayKey(spans[len(spans)-1].to))
		if err != nil {
			return nil, fmt.Errorf("timeseries visits: %w", err)
		}
		for _, span := range spans {
			resp.Points = append(resp.Points, TimeseriesPoint{
				Label:     span.label,
				BucketKey: dayKey(span.from),
				Value:     sumOverDays(sums, span.from, span.to),
			})
		}
		return resp, nil
	}

	// unique_actors. Daily buckets read row counts directly; multi-day
	// buckets need a distinct-dimension count per span, since summing per-day
	// uniques would double-count actors active on several days.
	if interval == "daily" {
		counts, err := s.rollups.CountRowsByDay(ctx, rollup.DefActiveUsers, dayKey(spans[0].from), dayKey(spans[len(spans)-1].to))
		if err != nil {
			return nil, fmt.Errorf("timeseries unique actors: %w", err)
		}
		for _, span := range spans {
			resp.Points = append(resp.Points, TimeseriesPoint{
				Label:     span.label,
				BucketKey: dayKey(span.from),
				Value:     decimal.NewFromInt(counts[dayKey(span.from)]),
			})
		}
		return resp, nil
	}

	for _, span := range spans {
		n, err := s.rollups.CountDistinctDimensions(ctx, rollup.DefActiveUsers, dayKey(span.from), dayKey(span.to), "")
		if err != nil {
			return nil, fmt.Errorf("timeseries unique actors %s: %w", span.label, err)
		}
		resp.Points = append(resp.Points, TimeseriesPoint{
			Label:     span.label,
			BucketKey: dayKey(span.from),
			Value:     decimal.NewFromInt(n),
		})
	}
	return resp, nil
}
