package entities

// Direction classifies the change between two values.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
	// DirectionNew marks a metric whose previous value was zero; its
	// percentage change is undefined and reported as 0.
	DirectionNew Direction = "new"
)

// TrendResult compares one metric across two snapshots.
type TrendResult struct {
	Current   float64   `json:"current"`
	Previous  float64   `json:"previous"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	Direction Direction `json:"direction"`
}

// SearchTrend is the click trend plus the position change. PositionChange is
// previous minus current, so a positive value means rankings improved.
type SearchTrend struct {
	TrendResult
	PositionChange float64 `json:"position_change"`
}

// WebTrend compares GA4 metrics. BounceRateChange is previous minus current,
// so a positive value is an improvement.
type WebTrend struct {
	Sessions         TrendResult `json:"sessions_change"`
	BounceRateChange float64     `json:"bounce_rate_change"`
	Conversions      TrendResult `json:"conversions_change"`
}

// SocialTrend compares Meta metrics.
type SocialTrend struct {
	Impressions TrendResult `json:"impressions_change"`
	Engagement  TrendResult `json:"engagement_change"`
}

// OverallTrend compares the overall score.
type OverallTrend struct {
	ScoreChange float64   `json:"score_change"`
	Direction   Direction `json:"direction"`
}

// TrendSet holds the trends between two snapshots. Channel trends are nil
// unless both snapshots carry that channel.
type TrendSet struct {
	Search  *SearchTrend `json:"gsc,omitempty"`
	Web     *WebTrend    `json:"ga4,omitempty"`
	Social  *SocialTrend `json:"meta,omitempty"`
	Overall OverallTrend `json:"overall"`
}

// TrendStatus tells callers whether a TrendReport carries trends.
type TrendStatus string

const (
	TrendStatusOK               TrendStatus = "ok"
	TrendStatusInsufficientData TrendStatus = "insufficient_data"
)

// TrendReport is the result of trend analysis over a history tail.
type TrendReport struct {
	Status  TrendStatus `json:"status"`
	Message string      `json:"message,omitempty"`
	Trends  *TrendSet   `json:"trends,omitempty"`
}

// Sufficient reports whether Trends may be read.
func (r TrendReport) Sufficient() bool {
	return r.Status == TrendStatusOK && r.Trends != nil
}
