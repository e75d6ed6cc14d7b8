package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Channel identifies one of the external data sources feeding a report.
type Channel string

const (
	ChannelSearch Channel = "search"
	ChannelWeb    Channel = "web"
	ChannelSocial Channel = "social"
)

// AllChannels lists every channel in report order.
var AllChannels = []Channel{ChannelSearch, ChannelWeb, ChannelSocial}

// Key returns the persisted report key for the channel (gsc, ga4, meta).
func (c Channel) Key() string {
	switch c {
	case ChannelSearch:
		return "gsc"
	case ChannelWeb:
		return "ga4"
	case ChannelSocial:
		return "meta"
	}
	return string(c)
}

// Label returns a human readable name for the channel.
func (c Channel) Label() string {
	switch c {
	case ChannelSearch:
		return "Google Search Console"
	case ChannelWeb:
		return "Google Analytics 4"
	case ChannelSocial:
		return "Meta"
	}
	return string(c)
}

// ParseChannel accepts either the channel name (search, web, social) or the
// persisted key (gsc, ga4, meta).
func ParseChannel(value string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "search", "gsc":
		return ChannelSearch, nil
	case "web", "ga4":
		return ChannelWeb, nil
	case "social", "meta":
		return ChannelSocial, nil
	}
	return "", fmt.Errorf("invalid channel %q: use search, web, or social", value)
}

// QuerySummary is one search query row kept on the report.
type QuerySummary struct {
	Query       string  `json:"query"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// SearchMetrics is the canonical Search Console record for a period.
type SearchMetrics struct {
	TotalQueries     int            `json:"total_queries"`
	TotalClicks      int64          `json:"total_clicks"`
	TotalImpressions int64          `json:"total_impressions"`
	AverageCTR       float64        `json:"average_ctr"`
	AveragePosition  float64        `json:"average_position"`
	Top3Rankings     int            `json:"top_3_rankings"`
	Positions4To10   int            `json:"positions_4_10"`
	TopQueries       []QuerySummary `json:"top_queries"`
}

// WebMetrics is the canonical GA4 record for a period.
type WebMetrics struct {
	TotalSessions      int64            `json:"total_sessions"`
	TotalUsers         int64            `json:"total_users"`
	TotalPageviews     int64            `json:"total_pageviews"`
	AvgSessionDuration float64          `json:"avg_session_duration"`
	BounceRate         float64          `json:"bounce_rate"`
	Conversions        int64            `json:"conversions"`
	ConversionRate     float64          `json:"conversion_rate"`
	DeviceBreakdown    map[string]int64 `json:"device_breakdown"`
	SourceBreakdown    map[string]int64 `json:"source_breakdown"`
}

// PostSummary is a recent social post with its engagement counts.
type PostSummary struct {
	ID              string `json:"id"`
	Message         string `json:"message"`
	CreatedTime     string `json:"created_time"`
	Likes           int64  `json:"likes"`
	Comments        int64  `json:"comments"`
	Shares          int64  `json:"shares"`
	TotalEngagement int64  `json:"total_engagement"`
}

// Engagement sources recorded on SocialMetrics.
const (
	EngagementFromInsights = "page_post_engagements"
	EngagementFromPosts    = "recent_posts"
	EngagementUnavailable  = "unavailable"
)

// SocialMetrics is the canonical Meta page record for a period.
type SocialMetrics struct {
	TotalImpressions    int64         `json:"total_impressions"`
	TotalEngagedUsers   int64         `json:"total_engaged_users"`
	TotalFans           int64         `json:"total_fans"`
	EngagementRate      float64       `json:"engagement_rate"`
	EngagementSource    string        `json:"engagement_source"`
	AvgDailyImpressions int64         `json:"avg_daily_impressions"`
	AvgDailyEngaged     int64         `json:"avg_daily_engaged"`
	PageViews           int64         `json:"page_views"`
	PostEngagements     int64         `json:"post_engagements"`
	RecentPosts         []PostSummary `json:"recent_posts"`
}

// WithDefaults fills nested collections so callers never see nil.
func (m *SearchMetrics) WithDefaults() *SearchMetrics {
	if m.TopQueries == nil {
		m.TopQueries = []QuerySummary{}
	}
	return m
}

// WithDefaults fills nested collections so callers never see nil.
func (m *WebMetrics) WithDefaults() *WebMetrics {
	if m.DeviceBreakdown == nil {
		m.DeviceBreakdown = map[string]int64{}
	}
	if m.SourceBreakdown == nil {
		m.SourceBreakdown = map[string]int64{}
	}
	return m
}

// WithDefaults fills nested collections so callers never see nil.
func (m *SocialMetrics) WithDefaults() *SocialMetrics {
	if m.RecentPosts == nil {
		m.RecentPosts = []PostSummary{}
	}
	if m.EngagementSource == "" {
		m.EngagementSource = EngagementUnavailable
	}
	return m
}

// Channels groups the per-channel metrics of one report. A nil field means the
// channel was not fetched or returned no data.
type Channels struct {
	GSC  *SearchMetrics
	GA4  *WebMetrics
	Meta *SocialMetrics
}

// Has reports whether data is present for the channel.
func (c Channels) Has(channel Channel) bool {
	switch channel {
	case ChannelSearch:
		return c.GSC != nil
	case ChannelWeb:
		return c.GA4 != nil
	case ChannelSocial:
		return c.Meta != nil
	}
	return false
}

// Get returns the metrics for a channel as an untyped value, nil when absent.
func (c Channels) Get(channel Channel) any {
	switch channel {
	case ChannelSearch:
		if c.GSC != nil {
			return c.GSC
		}
	case ChannelWeb:
		if c.GA4 != nil {
			return c.GA4
		}
	case ChannelSocial:
		if c.Meta != nil {
			return c.Meta
		}
	}
	return nil
}

type channelsJSON struct {
	GSC  any `json:"gsc"`
	GA4  any `json:"ga4"`
	Meta any `json:"meta"`
}

// MarshalJSON writes absent channels as empty objects, matching the stored
// report layout.
func (c Channels) MarshalJSON() ([]byte, error) {
	return json.Marshal(channelsJSON{
		GSC:  objectOrEmpty(c.GSC),
		GA4:  objectOrEmpty(c.GA4),
		Meta: objectOrEmpty(c.Meta),
	})
}

// UnmarshalJSON treats missing, null and empty channel objects as absent and
// defaults every missing or mistyped field of a present channel.
func (c *Channels) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Channels
	if gsc := decodeChannel[SearchMetrics](raw["gsc"]); gsc != nil {
		out.GSC = gsc.WithDefaults()
	}
	if ga4 := decodeChannel[WebMetrics](raw["ga4"]); ga4 != nil {
		out.GA4 = ga4.WithDefaults()
	}
	if meta := decodeChannel[SocialMetrics](raw["meta"]); meta != nil {
		out.Meta = meta.WithDefaults()
	}

	*c = out
	return nil
}

func objectOrEmpty[T any](v *T) any {
	if v == nil {
		return struct{}{}
	}
	return v
}

// decodeChannel returns nil unless raw is a non-empty object.
func decodeChannel[T any](raw json.RawMessage) *T {
	if isEmptyObject(raw) {
		return nil
	}
	var v T
	decodeLenient(raw, &v)
	return &v
}

func isEmptyObject(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return true
	}
	return len(fields) == 0
}
