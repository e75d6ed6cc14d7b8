package analysis

import (
	"math"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

const (
	// neutralScore is used for a channel with no data so that an unavailable
	// channel does not drag the overall score to zero.
	neutralScore = 50.0
	// placeholderScore is reported for categories no data source measures yet.
	placeholderScore = 75.0
)

// CalculateScores maps channel metrics to 0-100 category scores and their
// weighted overall value. Any channel may be nil.
func (e *Engine) CalculateScores(search *entities.SearchMetrics, web *entities.WebMetrics, social *entities.SocialMetrics) entities.ScoreSet {
	scores := entities.ScoreSet{
		SearchVisibility:   neutralScore,
		GA4Performance:     neutralScore,
		MetaPerformance:    neutralScore,
		TechnicalHealth:    placeholderScore,
		ContentPerformance: placeholderScore,
	}

	if search != nil {
		scores.SearchVisibility = searchVisibilityScore(search)
	}
	if web != nil {
		scores.GA4Performance = webPerformanceScore(web)
	}
	if social != nil {
		scores.MetaPerformance = socialPerformanceScore(social)
	}

	scores.Overall = e.overall(scores)
	return scores
}

// ScoreChannels is CalculateScores over a Channels value.
func (e *Engine) ScoreChannels(channels entities.Channels) entities.ScoreSet {
	return e.CalculateScores(channels.GSC, channels.GA4, channels.Meta)
}

func (e *Engine) overall(s entities.ScoreSet) float64 {
	w := e.weights
	total := s.SearchVisibility*w.SearchVisibility +
		s.GA4Performance*w.GA4Performance +
		s.MetaPerformance*w.MetaPerformance +
		s.TechnicalHealth*w.TechnicalHealth +
		s.ContentPerformance*w.ContentPerformance
	return roundTo(total, 2)
}

// searchVisibilityScore averages a volume component and a ranking component.
// Position 1 scores 100 on ranking, losing 5 points per position.
func searchVisibilityScore(m *entities.SearchMetrics) float64 {
	volume := math.Min(100, float64(m.TotalClicks)/100+float64(m.TotalImpressions)/1000)
	ranking := math.Max(0, 100-(m.AveragePosition-1)*5)
	return clamp((volume + ranking) / 2)
}

func webPerformanceScore(m *entities.WebMetrics) float64 {
	return clamp(100 - m.BounceRate*100 + m.ConversionRate*500)
}

func socialPerformanceScore(m *entities.SocialMetrics) float64 {
	return clamp(m.EngagementRate * 1000)
}
