package reporting

import (
	"context"
	"fmt"

	v1 "github.com/shopsight-lab/shopsight/internal/api/v1"
	"github.com/shopsight-lab/shopsight/internal/core/rollup"
)

// Summary returns the dashboard headline widget: visits and revenue for
// today / this week / this month against the immediately preceding period of
// equal length, plus authenticated-only DAU/WAU/MAU.
func (s *Service) Summary(ctx context.Context) (*SummaryResponse, error) {
	key := "summary:" + dayKey(s.today())
	out, err := s.cachedQuery(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.computeSummary(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.(*SummaryResponse), nil
}

// periodMetric compares a rollup sum over the trailing `days` window ending
// today with the window of equal length right before it.
func (s *Service) periodMetric(ctx context.Context, definition string, days int) (Metric, error) {
	today := s.today()
	curFrom := today.AddDate(0, 0, -(days - 1))
	prevTo := curFrom.AddDate(0, 0, -1)
	prevFrom := prevTo.AddDate(0, 0, -(days - 1))

	current, err := s.rollups.SumRange(ctx, definition, dayKey(curFrom), dayKey(today))
	if err != nil {
		return Metric{}, fmt.Errorf("summary %s current: %w", definition, err)
	}
	previous, err := s.rollups.SumRange(ctx, definition, dayKey(prevFrom), dayKey(prevTo))
	if err != nil {
		return Metric{}, fmt.Errorf("summary %s previous: %w", definition, err)
	}

	return Metric{
		Current:   current,
		Previous:  previous,
		ChangePct: percentChange(current, previous),
	}, nil
}

func (s *Service) periodSummary(ctx context.Context, days int) (PeriodSummary, error) {
	visits, err := s.periodMetric(ctx, rollup.DefDailyViews, days)
	if err != nil {
		return PeriodSummary{}, err
	}
	revenue, err := s.periodMetric(ctx, rollup.DefSales, days)
	if err != nil {
		return PeriodSummary{}, err
	}
	return PeriodSummary{Visits: visits, Revenue: revenue}, nil
}

// activeUserCount counts distinct authenticated actors over the trailing
// `days` window. The "user:" prefix filter excludes anonymous activity.
func (s *Service) activeUserCount(ctx context.Context, days int) (int64, error) {
	today := s.today()
	from := today.AddDate(0, 0, -(days - 1))
	return s.rollups.CountDistinctDimensions(ctx, rollup.DefActiveUsers, dayKey(from), dayKey(today), v1.ActorPrefixUser)
}

func (s *Service) computeSummary(ctx context.Context) (*SummaryResponse, error) {
	resp := &SummaryResponse{}

	var err error
	if resp.Today, err = s.periodSummary(ctx, 1); err != nil {
		return nil, err
	}
	if resp.ThisWeek, err = s.periodSummary(ctx, 7); err != nil {
		return nil, err
	}
	if resp.ThisMonth, err = s.periodSummary(ctx, 30); err != nil {
		return nil, err
	}

	if resp.ActiveUsers.DAU, err = s.activeUserCount(ctx, 1); err != nil {
		return nil, fmt.Errorf("summary dau: %w", err)
	}
	if resp.ActiveUsers.WAU, err = s.activeUserCount(ctx, 7); err != nil {
		return nil, fmt.Errorf("summary wau: %w", err)
	}
	if resp.ActiveUsers.MAU, err = s.activeUserCount(ctx, 30); err != nil {
		return nil, fmt.Errorf("summary mau: %w", err)
	}

	return resp, nil
}

// Conversions reports the view-to-cart, cart-to-checkout and checkout-to-order
// ratios for today against yesterday.
func (s *Service) Conversions(ctx context.Context) (*ConversionsResponse, error) {
	key := "conversions:" + dayKey(s.today())
	out, err := s.cachedQuery(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.computeConversions(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.(*ConversionsResponse), nil
}

// dayCounts loads the event counts feeding the conversion ratios for one day.
func (s *Service) dayCounts(ctx context.Context, day string) (views, carts, checkouts, orders float64, err error) {
	viewsDec, err := s.rollups.SumRange(ctx, rollup.DefProductViews, day, day)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("conversions views %s: %w", day, err)
	}
	cartsDec, err := s.rollups.SumByDimension(ctx, rollup.DefCartEvents, day, day, rollup.EventCartItemAdded)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("conversions carts %s: %w", day, err)
	}
	checkoutsDec, err := s.rollups.SumByDimension(ctx, rollup.DefCheckoutFunnel, day, day, rollup.FunnelStepStarted)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("conversions checkouts %s: %w", day, err)
	}
	ordersDec, err := s.rollups.SumByDimension(ctx, rollup.DefCheckoutFunnel, day, day, rollup.FunnelStepCompleted)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("conversions orders %s: %w", day, err)
	}

	views, _ = viewsDec.Float64()
	carts, _ = cartsDec.Float64()
	checkouts, _ = checkoutsDec.Float64()
	orders, _ = ordersDec.Float64()
	return views, carts, checkouts, orders, nil
}

func ratioPct(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator * 100
}

func (s *Service) computeConversions(ctx context.Context) (*ConversionsResponse, error) {
	today := s.today()
	yesterday := today.AddDate(0, 0, -1)

	tv, tc, tk, to, err := s.dayCounts(ctx, dayKey(today))
	if err != nil {
		return nil, err
	}
	yv, yc, yk, yo, err := s.dayCounts(ctx, dayKey(yesterday))
	if err != nil {
		return nil, err
	}

	steps := []struct {
		from, to               string
		todayPct, yesterdayPct float64
	}{
		{"product_viewed", "cart_item_added", ratioPct(tc, tv), ratioPct(yc, yv)},
		{"cart_item_added", "checkout_started", ratioPct(tk, tc), ratioPct(yk, yc)},
		{"checkout_started", "order_completed", ratioPct(to, tk), ratioPct(yo, yk)},
	}

	resp := &ConversionsResponse{Steps: make([]ConversionStep, 0, len(steps))}
	for _, st := range steps {
		resp.Steps = append(resp.Steps, ConversionStep{
			From:         st.from,
			To:           st.to,
			TodayPct:     st.todayPct,
			YesterdayPct: st.yesterdayPct,
			ChangePct:    percentChangeFloat(st.todayPct, st.yesterdayPct),
		})
	}
	return resp, nil
}
