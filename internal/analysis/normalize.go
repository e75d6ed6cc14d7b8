package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

const (
	topQueryLimit     = 10
	recentPostLimit   = 10
	postPreviewLength = 100
	daysPerWeek       = 7
)

// Normalize decodes a raw channel payload and returns Channels with only that
// channel set. An empty payload yields an empty Channels value, the same as an
// unavailable channel.
func Normalize(kind entities.Channel, raw []byte) (entities.Channels, error) {
	var channels entities.Channels
	if len(strings.TrimSpace(string(raw))) == 0 {
		return channels, nil
	}

	switch kind {
	case entities.ChannelSearch:
		var payload entities.SearchPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return channels, fmt.Errorf("decode search payload: %w", err)
		}
		channels.GSC = NormalizeSearch(&payload)
	case entities.ChannelWeb:
		var payload entities.WebPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return channels, fmt.Errorf("decode web payload: %w", err)
		}
		channels.GA4 = NormalizeWeb(&payload)
	case entities.ChannelSocial:
		var payload entities.SocialPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return channels, fmt.Errorf("decode social payload: %w", err)
		}
		channels.Meta = NormalizeSocial(&payload)
	default:
		return channels, fmt.Errorf("unknown channel %q", kind)
	}
	return channels, nil
}

// NormalizeSearch aggregates Search Console query rows. CTR and position are
// impression-weighted so low-volume queries do not skew them. Returns nil for
// an empty payload.
func NormalizeSearch(payload *entities.SearchPayload) *entities.SearchMetrics {
	if payload.Empty() {
		return nil
	}

	var clicks, impressions, weightedPosition float64
	top3, firstPage := 0, 0
	for _, row := range payload.Rows {
		clicks += row.Clicks
		impressions += row.Impressions
		weightedPosition += row.Position * row.Impressions

		switch {
		case row.Position <= 0:
			// unranked
		case row.Position <= 3:
			top3++
		case row.Position <= 10:
			firstPage++
		}
	}

	metrics := &entities.SearchMetrics{
		TotalQueries:     len(payload.Rows),
		TotalClicks:      int64(clicks),
		TotalImpressions: int64(impressions),
		Top3Rankings:     top3,
		Positions4To10:   firstPage,
		TopQueries:       topQueries(payload.Rows),
	}
	if impressions > 0 {
		metrics.AverageCTR = roundTo(clicks/impressions, 4)
		metrics.AveragePosition = roundTo(weightedPosition/impressions, 2)
	}
	return metrics.WithDefaults()
}

func topQueries(rows []entities.SearchRow) []entities.QuerySummary {
	limit := min(len(rows), topQueryLimit)
	out := make([]entities.QuerySummary, 0, limit)
	for _, row := range rows[:limit] {
		query := ""
		if len(row.Keys) > 0 {
			query = row.Keys[0]
		}
		ctr := row.CTR
		if ctr == 0 && row.Impressions > 0 {
			ctr = row.Clicks / row.Impressions
		}
		out = append(out, entities.QuerySummary{
			Query:       query,
			Clicks:      int64(row.Clicks),
			Impressions: int64(row.Impressions),
			CTR:         roundTo(ctr, 4),
			Position:    roundTo(row.Position, 2),
		})
	}
	return out
}

// NormalizeWeb reads GA4 totals, falling back to summing rows when the
// report has no totals. Returns nil for an empty payload.
func NormalizeWeb(payload *entities.WebPayload) *entities.WebMetrics {
	if payload.Empty() {
		return nil
	}

	metrics := &entities.WebMetrics{}
	report := payload.Report

	if len(report.Totals) > 0 && len(report.Totals[0].MetricValues) > 0 {
		totals := report.Totals[0]
		metrics.TotalSessions = int64(metricAt(totals, entities.GA4MetricSessions))
		metrics.TotalUsers = int64(metricAt(totals, entities.GA4MetricTotalUsers))
		metrics.TotalPageviews = int64(metricAt(totals, entities.GA4MetricPageViews))
		metrics.AvgSessionDuration = metricAt(totals, entities.GA4MetricAvgSessionDuration)
		metrics.BounceRate = metricAt(totals, entities.GA4MetricBounceRate)
		metrics.Conversions = int64(metricAt(totals, entities.GA4MetricConversions))
	} else {
		aggregateWebRows(metrics, report.Rows)
	}

	metrics.AvgSessionDuration = roundTo(metrics.AvgSessionDuration, 1)
	metrics.BounceRate = roundTo(metrics.BounceRate, 3)
	if metrics.TotalSessions > 0 {
		metrics.ConversionRate = roundTo(float64(metrics.Conversions)/float64(metrics.TotalSessions), 4)
	}

	metrics.DeviceBreakdown, metrics.SourceBreakdown = webBreakdown(payload)
	return metrics.WithDefaults()
}

// aggregateWebRows sums the count metrics and takes session-weighted means of
// duration and bounce rate.
func aggregateWebRows(metrics *entities.WebMetrics, rows []entities.GA4Row) {
	var sessions, users, pageviews, conversions float64
	var weightedDuration, weightedBounce, plainBounce float64
	for _, row := range rows {
		s := metricAt(row, entities.GA4MetricSessions)
		sessions += s
		users += metricAt(row, entities.GA4MetricTotalUsers)
		pageviews += metricAt(row, entities.GA4MetricPageViews)
		conversions += metricAt(row, entities.GA4MetricConversions)
		weightedDuration += metricAt(row, entities.GA4MetricAvgSessionDuration) * s
		bounce := metricAt(row, entities.GA4MetricBounceRate)
		weightedBounce += bounce * s
		plainBounce += bounce
	}

	metrics.TotalSessions = int64(sessions)
	metrics.TotalUsers = int64(users)
	metrics.TotalPageviews = int64(pageviews)
	metrics.Conversions = int64(conversions)
	switch {
	case sessions > 0:
		metrics.AvgSessionDuration = weightedDuration / sessions
		metrics.BounceRate = weightedBounce / sessions
	case len(rows) > 0:
		metrics.BounceRate = plainBounce / float64(len(rows))
	}
}

// webBreakdown sums sessions by device and by source. The dedicated breakdown
// report is preferred; otherwise the summary rows are used when they carry
// the date/device/source dimensions.
func webBreakdown(payload *entities.WebPayload) (map[string]int64, map[string]int64) {
	devices := map[string]int64{}
	sources := map[string]int64{}

	rows, deviceIdx, sourceIdx := payload.Breakdown.Rows, 0, 1
	if len(rows) == 0 {
		rows, deviceIdx, sourceIdx = payload.Report.Rows, 1, 2
	}

	for _, row := range rows {
		if len(row.DimensionValues) <= sourceIdx {
			continue
		}
		sessions := int64(metricAt(row, 0))
		devices[dimensionOrUnknown(row, deviceIdx)] += sessions
		sources[dimensionOrUnknown(row, sourceIdx)] += sessions
	}
	return devices, sources
}

func metricAt(row entities.GA4Row, idx int) float64 {
	if idx >= len(row.MetricValues) {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row.MetricValues[idx].Value), 64)
	if err != nil {
		return 0
	}
	return v
}

func dimensionOrUnknown(row entities.GA4Row, idx int) string {
	if v := strings.TrimSpace(row.DimensionValues[idx].Value); v != "" {
		return v
	}
	return "unknown"
}

// NormalizeSocial summarizes Meta page insights. Lifetime metrics take their
// first value, period metrics are summed. Returns nil for an empty payload.
func NormalizeSocial(payload *entities.SocialPayload) *entities.SocialMetrics {
	if payload.Empty() {
		return nil
	}

	insights := make(map[string]float64, len(payload.Insights))
	for _, in := range payload.Insights {
		if in.Period == "lifetime" {
			if len(in.Values) > 0 {
				insights[in.Name] = in.Values[0].Value
			}
			continue
		}
		total := 0.0
		for _, v := range in.Values {
			total += v.Value
		}
		insights[in.Name] += total
	}

	impressions := int64(firstPresent(insights, "page_impressions_unique", "page_impressions"))
	posts := summarizePosts(payload.Posts)

	var postTotal int64
	for _, p := range posts {
		postTotal += p.TotalEngagement
	}

	metrics := &entities.SocialMetrics{
		TotalImpressions: impressions,
		TotalFans:        payload.FanCount,
		PageViews:        int64(firstPresent(insights, "page_views_total", "page_views")),
		PostEngagements:  int64(insights["page_post_engagements"]),
		RecentPosts:      posts,
	}

	switch {
	case metrics.PostEngagements > 0:
		metrics.TotalEngagedUsers = metrics.PostEngagements
		metrics.EngagementSource = entities.EngagementFromInsights
	case postTotal > 0:
		metrics.TotalEngagedUsers = postTotal
		metrics.EngagementSource = entities.EngagementFromPosts
	default:
		metrics.EngagementSource = entities.EngagementUnavailable
	}

	if impressions > 0 {
		metrics.EngagementRate = roundTo(float64(metrics.TotalEngagedUsers)/float64(impressions), 4)
	}
	metrics.AvgDailyImpressions = impressions / daysPerWeek
	metrics.AvgDailyEngaged = metrics.TotalEngagedUsers / daysPerWeek

	return metrics.WithDefaults()
}

func firstPresent(values map[string]float64, names ...string) float64 {
	for _, name := range names {
		if v, ok := values[name]; ok {
			return v
		}
	}
	return 0
}

func summarizePosts(posts []entities.MetaPost) []entities.PostSummary {
	limit := min(len(posts), recentPostLimit)
	out := make([]entities.PostSummary, 0, limit)
	for _, p := range posts[:limit] {
		out = append(out, entities.PostSummary{
			ID:              p.ID,
			Message:         previewMessage(p.Message),
			CreatedTime:     p.CreatedTime,
			Likes:           p.Likes,
			Comments:        p.Comments,
			Shares:          p.Shares,
			TotalEngagement: p.Likes + p.Comments + p.Shares,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalEngagement > out[j].TotalEngagement
	})
	return out
}

func previewMessage(message string) string {
	if message == "" {
		return "(No message)"
	}
	if utf8.RuneCountInString(message) <= postPreviewLength {
		return message
	}
	return string([]rune(message)[:postPreviewLength]) + "..."
}
