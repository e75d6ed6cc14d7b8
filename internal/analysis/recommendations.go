package analysis

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

// MaxRecommendations caps the list returned by GenerateRecommendations.
const MaxRecommendations = 8

// ScoreDropAlarm is the overall score change at or below which a report is
// treated as a score drop.
const ScoreDropAlarm = -5.0

const (
	highBounceRate         = 0.6
	bounceRateWorsening    = -0.05
	pageOnePositionCeiling = 5.0
	lowEngagementRate      = 0.03
	overallScoreTarget     = 50.0
)

// GenerateRecommendations returns at most MaxRecommendations items in
// generation order: trend rules first, then threshold rules on the current
// metrics, then generic growth items. A site without history gets the
// onboarding set instead.
func (e *Engine) GenerateRecommendations(scores entities.ScoreSet, trends *entities.TrendSet, channels entities.Channels, historyPresent bool) []entities.Recommendation {
	if !historyPresent {
		return DefaultRecommendations()
	}

	recs := make([]entities.Recommendation, 0, MaxRecommendations)
	if trends != nil {
		recs = append(recs, trendRecommendations(trends)...)
	}
	recs = append(recs, thresholdRecommendations(scores, channels)...)
	recs = append(recs, growthOpportunities()...)

	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

func trendRecommendations(trends *entities.TrendSet) []entities.Recommendation {
	var recs []entities.Recommendation

	if t := trends.Search; t != nil {
		switch {
		case t.Direction == entities.DirectionDown:
			recs = append(recs, entities.Recommendation{
				Priority:    entities.PriorityCritical,
				Category:    "SEO",
				Title:       "Search Traffic Declining",
				Description: fmt.Sprintf("Clicks are down %s%% from last period. Immediate action needed.", formatNumber(math.Abs(t.ChangePct))),
				Action:      "Review recent algorithm changes, check for technical issues, and audit backlink profile.",
				Impact:      "High",
				Timeline:    "This week",
			})
		case t.PositionChange > 0:
			recs = append(recs, entities.Recommendation{
				Priority:    entities.PriorityGrowth,
				Category:    "SEO",
				Title:       "Rankings Improving",
				Description: fmt.Sprintf("Average position improved by %.1f positions. Capitalize on this momentum!", t.PositionChange),
				Action:      "Create more content around top-performing keywords and build backlinks.",
				Impact:      "High",
				Timeline:    "Next 2 weeks",
			})
		}
	}

	if t := trends.Web; t != nil {
		if t.BounceRateChange < bounceRateWorsening {
			recs = append(recs, entities.Recommendation{
				Priority:    entities.PriorityCritical,
				Category:    "UX",
				Title:       "Bounce Rate Increasing",
				Description: "Bounce rate increased. Users are leaving without engaging.",
				Action:      "Improve page load speed, enhance content quality, add clear CTAs.",
				Impact:      "High",
				Timeline:    "This week",
			})
		}
		if t.Conversions.Direction == entities.DirectionUp {
			recs = append(recs, entities.Recommendation{
				Priority:    entities.PriorityGrowth,
				Category:    "Conversion",
				Title:       "Conversions Growing",
				Description: "Your conversion optimization is working! Scale what's working.",
				Action:      "Double down on high-converting pages and traffic sources.",
				Impact:      "High",
				Timeline:    "Immediately",
			})
		}
	}

	if t := trends.Social; t != nil && t.Impressions.Direction == entities.DirectionUp {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityGrowth,
			Category:    "Social",
			Title:       "Social Reach Growing",
			Description: fmt.Sprintf("Impressions up %s%%! Leverage this reach.", formatNumber(t.Impressions.ChangePct)),
			Action:      "Increase posting frequency and test paid promotion to scale.",
			Impact:      "Medium",
			Timeline:    "This week",
		})
	}

	if trends.Overall.ScoreChange <= ScoreDropAlarm {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityCritical,
			Category:    "Overall",
			Title:       "Overall Score Dropping",
			Description: fmt.Sprintf("Overall score fell %s points since the last report.", formatNumber(math.Abs(trends.Overall.ScoreChange))),
			Action:      "Review the channel trends below to find which source is pulling the score down.",
			Impact:      "High",
			Timeline:    "This week",
		})
	}

	return recs
}

// thresholdRecommendations only looks at channels present in the current
// report; an unavailable channel never triggers a rule.
func thresholdRecommendations(scores entities.ScoreSet, channels entities.Channels) []entities.Recommendation {
	var recs []entities.Recommendation

	if scores.Overall < overallScoreTarget {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityHigh,
			Category:    "Overall",
			Title:       "Overall Performance Below Target",
			Description: fmt.Sprintf("Overall score is %.1f/100. Focus on the lowest scoring channel first.", scores.Overall),
			Action:      "Work through the channel recommendations starting with the weakest category.",
			Impact:      "High",
			Timeline:    "This month",
		})
	}

	if web := channels.GA4; web != nil && web.BounceRate > highBounceRate {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityHigh,
			Category:    "UX",
			Title:       "High Bounce Rate",
			Description: fmt.Sprintf("%.0f%% bounce rate is hurting conversions.", web.BounceRate*100),
			Action:      "Audit top landing pages, improve mobile experience, add engaging content.",
			Impact:      "High",
			Timeline:    "This week",
		})
	}

	if search := channels.GSC; search != nil && search.AveragePosition > pageOnePositionCeiling {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityHigh,
			Category:    "SEO",
			Title:       "Position 5-10 Opportunity",
			Description: fmt.Sprintf("Average ranking at %.1f. Small improvements = big traffic gains.", search.AveragePosition),
			Action:      "Optimize content for top 10 keywords, build 2-3 quality backlinks.",
			Impact:      "High",
			Timeline:    "2-4 weeks",
		})
	}

	if social := channels.Meta; social != nil && social.EngagementRate < lowEngagementRate {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityMedium,
			Category:    "Social",
			Title:       "Low Engagement",
			Description: fmt.Sprintf("Only %.1f%% engagement. Content may not be resonating.", social.EngagementRate*100),
			Action:      "Test video content, ask questions, share customer stories.",
			Impact:      "Medium",
			Timeline:    "This week",
		})
	}

	return recs
}

func growthOpportunities() []entities.Recommendation {
	return []entities.Recommendation{
		{
			Priority:    entities.PriorityGrowth,
			Category:    "Content",
			Title:       "Content Gap Analysis",
			Description: "Identify content opportunities your competitors rank for but you don't.",
			Action:      "Use GSC to find keywords with impressions but no clicks - these are opportunities.",
			Impact:      "Medium",
			Timeline:    "This month",
		},
		{
			Priority:    entities.PriorityGrowth,
			Category:    "Traffic",
			Title:       "Referral Traffic Strategy",
			Description: "Build strategic partnerships for referral traffic.",
			Action:      "Guest post, collaborations, directory submissions.",
			Impact:      "Medium",
			Timeline:    "This month",
		},
	}
}

// DefaultRecommendations is the onboarding set for a site with no history.
func DefaultRecommendations() []entities.Recommendation {
	return []entities.Recommendation{
		{
			Priority:    entities.PriorityHigh,
			Category:    "Setup",
			Title:       "Complete GA4 Setup",
			Description: "Set up conversion events in GA4 to track business goals.",
			Action:      "Configure at least 3 conversion events (signups, purchases, contact forms).",
			Impact:      "High",
			Timeline:    "This week",
		},
		{
			Priority:    entities.PriorityHigh,
			Category:    "SEO",
			Title:       "Keyword Research",
			Description: "Identify your top 10 target keywords with good search volume.",
			Action:      "Use GSC data to find keywords where you rank 5-15 - optimize these pages.",
			Impact:      "High",
			Timeline:    "This week",
		},
		{
			Priority:    entities.PriorityMedium,
			Category:    "Social",
			Title:       "Content Calendar",
			Description: "Create a consistent posting schedule.",
			Action:      "Post 5x per week: 2 educational, 1 behind-scenes, 1 customer story, 1 promotional.",
			Impact:      "Medium",
			Timeline:    "Ongoing",
		},
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
