package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/analyst/internal/analysis"
	"github.com/sitepulse/analyst/internal/domain/entities"
)

func titles(recs []entities.Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}

func TestGenerateRecommendations_NoHistoryReturnsOnboardingSet(t *testing.T) {
	engine := analysis.NewDefaultEngine()
	channels := entities.Channels{GA4: &entities.WebMetrics{BounceRate: 0.9}}

	recs := engine.GenerateRecommendations(entities.ScoreSet{Overall: 10}, nil, channels, false)

	assert.Equal(t, []string{"Complete GA4 Setup", "Keyword Research", "Content Calendar"}, titles(recs))
	assert.Equal(t, analysis.DefaultRecommendations(), recs)
}

func TestGenerateRecommendations_OrderTrendsThenThresholdsThenFiller(t *testing.T) {
	engine := analysis.NewDefaultEngine()
	trends := &entities.TrendSet{
		Search: &entities.SearchTrend{
			TrendResult:    entities.TrendResult{ChangePct: 12.5, Direction: entities.DirectionUp},
			PositionChange: 1.5,
		},
	}
	channels := entities.Channels{GA4: &entities.WebMetrics{BounceRate: 0.7}}

	recs := engine.GenerateRecommendations(entities.ScoreSet{Overall: 70}, trends, channels, true)

	assert.Equal(t, []string{
		"Rankings Improving",
		"High Bounce Rate",
		"Content Gap Analysis",
		"Referral Traffic Strategy",
	}, titles(recs))
	assert.Equal(t, entities.PriorityGrowth, recs[0].Priority)
	assert.Equal(t, "Average position improved by 1.5 positions. Capitalize on this momentum!", recs[0].Description)
	assert.Equal(t, "70% bounce rate is hurting conversions.", recs[1].Description)
}

func TestGenerateRecommendations_DecliningSearchBeatsRankingGains(t *testing.T) {
	engine := analysis.NewDefaultEngine()
	trends := &entities.TrendSet{
		Search: &entities.SearchTrend{
			TrendResult:    entities.TrendResult{ChangePct: -22.5, Direction: entities.DirectionDown},
			PositionChange: 3,
		},
	}

	recs := engine.GenerateRecommendations(entities.ScoreSet{Overall: 80}, trends, entities.Channels{}, true)

	require.NotEmpty(t, recs)
	assert.Equal(t, "Search Traffic Declining", recs[0].Title)
	assert.Equal(t, entities.PriorityCritical, recs[0].Priority)
	assert.Equal(t, "Clicks are down 22.5% from last period. Immediate action needed.", recs[0].Description)
	assert.NotContains(t, titles(recs), "Rankings Improving")
}

func TestGenerateRecommendations_CappedAtEight(t *testing.T) {
	engine := analysis.NewDefaultEngine()
	trends := &entities.TrendSet{
		Search: &entities.SearchTrend{TrendResult: entities.TrendResult{ChangePct: -40, Direction: entities.DirectionDown}},
		Web: &entities.WebTrend{
			BounceRateChange: -0.2,
			Conversions:      entities.TrendResult{Direction: entities.DirectionUp, ChangePct: 20},
		},
		Social:  &entities.SocialTrend{Impressions: entities.TrendResult{Direction: entities.DirectionUp, ChangePct: 35}},
		Overall: entities.OverallTrend{ScoreChange: -12, Direction: entities.DirectionDown},
	}
	channels := entities.Channels{
		GSC:  &entities.SearchMetrics{AveragePosition: 14},
		GA4:  &entities.WebMetrics{BounceRate: 0.8},
		Meta: &entities.SocialMetrics{EngagementRate: 0.01},
	}

	recs := engine.GenerateRecommendations(entities.ScoreSet{Overall: 30}, trends, channels, true)

	require.Len(t, recs, analysis.MaxRecommendations)
	assert.Equal(t, []string{
		"Search Traffic Declining",
		"Bounce Rate Increasing",
		"Conversions Growing",
		"Social Reach Growing",
		"Overall Score Dropping",
		"Overall Performance Below Target",
		"High Bounce Rate",
		"Position 5-10 Opportunity",
	}, titles(recs))
}

func TestGenerateRecommendations_OverallDropFollowsChannelTrends(t *testing.T) {
	engine := analysis.NewDefaultEngine()
	trends := &entities.TrendSet{
		Search: &entities.SearchTrend{TrendResult: entities.TrendResult{ChangePct: -15, Direction: entities.DirectionDown}},
		Web: &entities.WebTrend{
			BounceRateChange: -0.1,
			Conversions:      entities.TrendResult{Direction: entities.DirectionUp, ChangePct: 8},
		},
		Social:  &entities.SocialTrend{Impressions: entities.TrendResult{Direction: entities.DirectionUp, ChangePct: 12}},
		Overall: entities.OverallTrend{ScoreChange: -6, Direction: entities.DirectionDown},
	}

	recs := engine.GenerateRecommendations(entities.ScoreSet{Overall: 80}, trends, entities.Channels{}, true)

	require.GreaterOrEqual(t, len(recs), 5)
	assert.Equal(t, []string{
		"Search Traffic Declining",
		"Bounce Rate Increasing",
		"Conversions Growing",
		"Social Reach Growing",
		"Overall Score Dropping",
	}, titles(recs[:5]))
	assert.Equal(t, "Overall score fell 6 points since the last report.", recs[4].Description)
}

func TestGenerateRecommendations_AbsentChannelsDoNotTriggerThresholds(t *testing.T) {
	engine := analysis.NewDefaultEngine()

	recs := engine.GenerateRecommendations(entities.ScoreSet{Overall: 57.5}, nil, entities.Channels{}, true)

	assert.Equal(t, []string{"Content Gap Analysis", "Referral Traffic Strategy"}, titles(recs))
}

func TestChannelRecommendations(t *testing.T) {
	tests := []struct {
		name     string
		kind     entities.Channel
		channels entities.Channels
		want     []string
	}{
		{
			name:     "search issues",
			kind:     entities.ChannelSearch,
			channels: entities.Channels{GSC: &entities.SearchMetrics{AveragePosition: 8.2, AverageCTR: 0.01, Positions4To10: 4}},
			want:     []string{"Improve Search Rankings", "Improve CTR", "Optimize Page 1 Keywords"},
		},
		{
			name:     "healthy search",
			kind:     entities.ChannelSearch,
			channels: entities.Channels{GSC: &entities.SearchMetrics{AveragePosition: 2, AverageCTR: 0.08}},
			want:     []string{"Maintain Performance"},
		},
		{
			name:     "web issues",
			kind:     entities.ChannelWeb,
			channels: entities.Channels{GA4: &entities.WebMetrics{BounceRate: 0.55, TotalSessions: 40}},
			want:     []string{"Reduce Bounce Rate", "Set Up Conversions", "Increase Traffic"},
		},
		{
			name:     "healthy web",
			kind:     entities.ChannelWeb,
			channels: entities.Channels{GA4: &entities.WebMetrics{BounceRate: 0.3, TotalSessions: 4000, Conversions: 12}},
			want:     []string{"Maintain Performance"},
		},
		{
			name:     "social always gets content strategy",
			kind:     entities.ChannelSocial,
			channels: entities.Channels{Meta: &entities.SocialMetrics{EngagementRate: 0.08, TotalImpressions: 50000}},
			want:     []string{"Content Strategy"},
		},
		{
			name:     "weak social",
			kind:     entities.ChannelSocial,
			channels: entities.Channels{Meta: &entities.SocialMetrics{EngagementRate: 0.01, TotalImpressions: 900}},
			want:     []string{"Boost Engagement", "Increase Reach", "Content Strategy"},
		},
		{
			name:     "channel without data",
			kind:     entities.ChannelWeb,
			channels: entities.Channels{},
			want:     []string{"Connect Google Analytics 4"},
		},
		{
			name:     "unknown channel",
			kind:     entities.Channel("video"),
			channels: entities.Channels{},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analysis.ChannelRecommendations(tt.kind, tt.channels)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}
