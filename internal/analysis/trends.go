package analysis

import (
	"github.com/sitepulse/analyst/internal/domain/entities"
)

// InsufficientHistoryMessage is returned with a TrendReport whose history
// tail holds fewer than two snapshots.
const InsufficientHistoryMessage = "Need at least 2 reports for trend analysis"

// ComputeMetricTrend compares one metric. A zero previous value yields
// DirectionNew with a zero percentage; callers must branch on the direction.
func ComputeMetricTrend(current, previous float64) entities.TrendResult {
	if previous == 0 {
		return entities.TrendResult{
			Current:   current,
			Previous:  previous,
			Direction: entities.DirectionNew,
		}
	}

	change := current - previous
	return entities.TrendResult{
		Current:   current,
		Previous:  previous,
		Change:    change,
		ChangePct: roundTo(change/previous*100, 1),
		Direction: directionOf(change),
	}
}

// ComputeTrend compares two snapshots. Channel trends are only set when both
// snapshots carry the channel.
func (e *Engine) ComputeTrend(current, previous entities.Snapshot) entities.TrendSet {
	var set entities.TrendSet

	if cur, prev := current.Channels.GSC, previous.Channels.GSC; cur != nil && prev != nil {
		set.Search = &entities.SearchTrend{
			TrendResult:    ComputeMetricTrend(float64(cur.TotalClicks), float64(prev.TotalClicks)),
			PositionChange: roundTo(prev.AveragePosition-cur.AveragePosition, 2),
		}
	}

	if cur, prev := current.Channels.GA4, previous.Channels.GA4; cur != nil && prev != nil {
		set.Web = &entities.WebTrend{
			Sessions:         ComputeMetricTrend(float64(cur.TotalSessions), float64(prev.TotalSessions)),
			BounceRateChange: roundTo(prev.BounceRate-cur.BounceRate, 4),
			Conversions:      ComputeMetricTrend(float64(cur.Conversions), float64(prev.Conversions)),
		}
	}

	if cur, prev := current.Channels.Meta, previous.Channels.Meta; cur != nil && prev != nil {
		set.Social = &entities.SocialTrend{
			Impressions: ComputeMetricTrend(float64(cur.TotalImpressions), float64(prev.TotalImpressions)),
			Engagement:  ComputeMetricTrend(cur.EngagementRate, prev.EngagementRate),
		}
	}

	change := roundTo(current.Scores.Overall-previous.Scores.Overall, 2)
	set.Overall = entities.OverallTrend{
		ScoreChange: change,
		Direction:   directionOf(change),
	}
	return set
}

// ComputeTrends compares the last two snapshots of a history tail ordered
// oldest first.
func (e *Engine) ComputeTrends(tail []entities.Snapshot) entities.TrendReport {
	if len(tail) < 2 {
		return entities.TrendReport{
			Status:  entities.TrendStatusInsufficientData,
			Message: InsufficientHistoryMessage,
		}
	}

	set := e.ComputeTrend(tail[len(tail)-1], tail[len(tail)-2])
	return entities.TrendReport{
		Status: entities.TrendStatusOK,
		Trends: &set,
	}
}
