package entities

// SearchRow is one row of a Search Console searchAnalytics.query response.
type SearchRow struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

// SearchPayload is the raw Search Console response for one period.
type SearchPayload struct {
	Rows []SearchRow `json:"rows"`
}

// Empty reports whether the payload carries no data.
func (p *SearchPayload) Empty() bool {
	return p == nil || len(p.Rows) == 0
}

// GA4Value is a single dimension or metric cell of a GA4 report row.
type GA4Value struct {
	Value string `json:"value"`
}

// GA4Row is one row of a GA4 runReport response.
type GA4Row struct {
	DimensionValues []GA4Value `json:"dimensionValues"`
	MetricValues    []GA4Value `json:"metricValues"`
}

// GA4Report is the subset of a GA4 runReport response the analyst reads.
type GA4Report struct {
	Rows     []GA4Row `json:"rows"`
	Totals   []GA4Row `json:"totals"`
	RowCount int      `json:"rowCount"`
}

// GA4 metric positions in the summary report request.
const (
	GA4MetricSessions = iota
	GA4MetricTotalUsers
	GA4MetricPageViews
	GA4MetricAvgSessionDuration
	GA4MetricBounceRate
	GA4MetricConversions
)

// GA4SummaryMetrics are requested in the order of the GA4Metric constants.
var GA4SummaryMetrics = []string{
	"sessions",
	"totalUsers",
	"screenPageViews",
	"averageSessionDuration",
	"bounceRate",
	"conversions",
}

// WebPayload is the raw GA4 data for one period: the summary report and a
// device/source session breakdown.
type WebPayload struct {
	Report    GA4Report `json:"report"`
	Breakdown GA4Report `json:"breakdown"`
}

// Empty reports whether the payload carries no data.
func (p *WebPayload) Empty() bool {
	return p == nil || len(p.Report.Rows) == 0
}

// InsightValue is one value of a Meta page insight series.
type InsightValue struct {
	Value   float64 `json:"value"`
	EndTime string  `json:"end_time"`
}

// Insight is one Meta page insight metric.
type Insight struct {
	Name   string         `json:"name"`
	Period string         `json:"period"`
	Values []InsightValue `json:"values"`
}

// MetaPost is a page post with its engagement counters.
type MetaPost struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	CreatedTime string `json:"created_time"`
	Likes       int64  `json:"likes"`
	Comments    int64  `json:"comments"`
	Shares      int64  `json:"shares"`
}

// SocialPayload is the raw Meta Graph data for one period.
type SocialPayload struct {
	Insights []Insight  `json:"data"`
	FanCount int64      `json:"fan_count"`
	Posts    []MetaPost `json:"posts"`
}

// Empty reports whether the payload carries no data.
func (p *SocialPayload) Empty() bool {
	return p == nil || len(p.Insights) == 0
}
