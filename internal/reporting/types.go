package reporting

import "github.com/shopspring/decimal"

// TimeseriesPoint is one bucket of a time-series response. BucketKey is the
// first day of the bucket in YYYY-MM-DD form; Label is display-oriented.
type TimeseriesPoint struct {
	Label     string          `json:"label"`
	BucketKey string          `json:"bucket_key"`
	Value     decimal.Decimal `json:"value"`
}

// TimeseriesResponse is the ordered sequence of buckets, oldest first.
type TimeseriesResponse struct {
	Interval string            `json:"interval"`
	Metric   string            `json:"metric"`
	Points   []TimeseriesPoint `json:"points"`
}

// Metric pairs a current-period value with the immediately preceding
// equal-length period and the percent change between them.
type Metric struct {
	Current   decimal.Decimal `json:"current"`
	Previous  decimal.Decimal `json:"previous"`
	ChangePct float64         `json:"change_pct"`
}

// PeriodSummary is one row of the summary: the same metrics for one window.
type PeriodSummary struct {
	Visits  Metric `json:"visits"`
	Revenue Metric `json:"revenue"`
}

// ActiveUsers carries the authenticated-only distinct actor counts.
type ActiveUsers struct {
	DAU int64 `json:"dau"`
	WAU int64 `json:"wau"`
	MAU int64 `json:"mau"`
}

// SummaryResponse is the dashboard headline widget.
type SummaryResponse struct {
	Today       PeriodSummary `json:"today"`
	ThisWeek    PeriodSummary `json:"this_week"`
	ThisMonth   PeriodSummary `json:"this_month"`
	ActiveUsers ActiveUsers   `json:"active_users"`
}

// FunnelStageResult is one stage of a funnel report. Actors counts are
// monotonically non-increasing down the stages.
type FunnelStageResult struct {
	Label      string  `json:"label"`
	Event      string  `json:"event"`
	Actors     int64   `json:"actors"`
	DropOffPct float64 `json:"drop_off_pct"`
}

// FunnelResponse reports distinct-actor progression through ordered stages.
type FunnelResponse struct {
	Name          string              `json:"name"`
	WindowDays    int                 `json:"window_days"`
	Stages        []FunnelStageResult `json:"stages"`
	ConversionPct float64             `json:"conversion_pct"`
}

// TopEntry is one ranked row of a top-N report.
type TopEntry struct {
	Dimension string          `json:"dimension"`
	Value     decimal.Decimal `json:"value"`
	Events    int64           `json:"events"`
}

// TopResponse ranks a dimension by rollup totals, descending.
type TopResponse struct {
	Dimension string     `json:"dimension"`
	Interval  string     `json:"interval"`
	Entries   []TopEntry `json:"entries"`
}

// ConversionStep is one funnel-adjacent ratio (e.g. view-to-cart) compared
// across today and yesterday.
type ConversionStep struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	TodayPct     float64 `json:"today_pct"`
	YesterdayPct float64 `json:"yesterday_pct"`
	ChangePct    float64 `json:"change_pct"`
}

// ConversionsResponse reports the view-to-cart, cart-to-checkout and
// checkout-to-order ratios with the summary percent-change formula.
type ConversionsResponse struct {
	Steps []ConversionStep `json:"steps"`
}
