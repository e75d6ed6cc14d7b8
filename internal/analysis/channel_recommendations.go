package analysis

import (
	"fmt"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

// ChannelRecommendations returns the per-channel advice shown on a channel
// view. A channel with nothing to fix gets a single "Maintain Performance"
// item and an unavailable channel gets a setup item.
func ChannelRecommendations(kind entities.Channel, channels entities.Channels) []entities.Recommendation {
	if !channels.Has(kind) {
		return connectChannel(kind)
	}

	var recs []entities.Recommendation
	maintain := ""

	switch kind {
	case entities.ChannelSearch:
		recs = searchChannelRecommendations(channels.GSC)
		maintain = "SEO metrics look good. Continue current strategy and monitor trends."
	case entities.ChannelWeb:
		recs = webChannelRecommendations(channels.GA4)
		maintain = "Web analytics look healthy. Continue monitoring and optimizing."
	case entities.ChannelSocial:
		recs = socialChannelRecommendations(channels.Meta)
		maintain = "Social metrics look good. Continue engaging with your audience."
	default:
		return nil
	}

	if len(recs) == 0 {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityLow,
			Category:    kind.Label(),
			Title:       "Maintain Performance",
			Description: maintain,
		})
	}
	return recs
}

func connectChannel(kind entities.Channel) []entities.Recommendation {
	switch kind {
	case entities.ChannelSearch, entities.ChannelWeb, entities.ChannelSocial:
	default:
		return nil
	}
	return []entities.Recommendation{{
		Priority:    entities.PriorityHigh,
		Category:    "Setup",
		Title:       "Connect " + kind.Label(),
		Description: fmt.Sprintf("No %s data for this period. Check the credentials and rerun the analysis.", kind.Label()),
	}}
}

func searchChannelRecommendations(m *entities.SearchMetrics) []entities.Recommendation {
	var recs []entities.Recommendation
	category := entities.ChannelSearch.Label()

	if m.AveragePosition > pageOnePositionCeiling {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityHigh,
			Category:    category,
			Title:       "Improve Search Rankings",
			Description: fmt.Sprintf("Average position is %.1f. Focus on content optimization and building backlinks to reach top 3.", m.AveragePosition),
		})
	}
	if m.AverageCTR < 0.03 {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityHigh,
			Category:    category,
			Title:       "Improve CTR",
			Description: fmt.Sprintf("CTR is %.2f%%. Optimize title tags and meta descriptions with power words.", m.AverageCTR*100),
		})
	}
	if m.Positions4To10 > 0 {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityMedium,
			Category:    category,
			Title:       "Optimize Page 1 Keywords",
			Description: fmt.Sprintf("%d queries ranking 4-10. Small improvements can boost these to top 3.", m.Positions4To10),
		})
	}
	return recs
}

func webChannelRecommendations(m *entities.WebMetrics) []entities.Recommendation {
	var recs []entities.Recommendation
	category := entities.ChannelWeb.Label()

	if m.BounceRate > 0.5 {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityHigh,
			Category:    category,
			Title:       "Reduce Bounce Rate",
			Description: fmt.Sprintf("Bounce rate is %.1f%%. Improve page speed, add engaging content, and ensure mobile responsiveness.", m.BounceRate*100),
		})
	}
	if m.Conversions == 0 {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityHigh,
			Category:    category,
			Title:       "Set Up Conversions",
			Description: "No conversions tracked. Set up conversion events in GA4 for key actions (signups, purchases, form submissions).",
		})
	}
	if m.TotalSessions < 100 {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityMedium,
			Category:    category,
			Title:       "Increase Traffic",
			Description: fmt.Sprintf("Only %d sessions. Improve SEO and consider paid traffic to increase visitors.", m.TotalSessions),
		})
	}
	return recs
}

func socialChannelRecommendations(m *entities.SocialMetrics) []entities.Recommendation {
	var recs []entities.Recommendation
	category := entities.ChannelSocial.Label()

	if m.EngagementRate < lowEngagementRate {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityHigh,
			Category:    category,
			Title:       "Boost Engagement",
			Description: fmt.Sprintf("Engagement rate is %.2f%%. Post more videos, use polls, and ask questions.", m.EngagementRate*100),
		})
	}
	if m.TotalImpressions < 10000 {
		recs = append(recs, entities.Recommendation{
			Priority:    entities.PriorityMedium,
			Category:    category,
			Title:       "Increase Reach",
			Description: "Low impressions. Post more consistently and use relevant hashtags.",
		})
	}
	return append(recs, entities.Recommendation{
		Priority:    entities.PriorityMedium,
		Category:    category,
		Title:       "Content Strategy",
		Description: "Mix of content types: educational posts, behind-the-scenes, customer testimonials, and promotional content.",
	})
}
