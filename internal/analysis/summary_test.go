package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitepulse/analyst/internal/analysis"
	"github.com/sitepulse/analyst/internal/domain/entities"
)

func TestGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "A"},
		{90, "A"},
		{89.99, "B"},
		{80, "B"},
		{70, "C"},
		{60, "D"},
		{59.9, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, analysis.Grade(tt.score), "score %v", tt.score)
	}
}

func TestSummary(t *testing.T) {
	channels := entities.Channels{
		GSC: &entities.SearchMetrics{TotalClicks: 12345, AveragePosition: 4.56},
		GA4: &entities.WebMetrics{TotalSessions: 2500, BounceRate: 0.423},
	}

	got := analysis.Summary(channels, entities.ScoreSet{Overall: 72.34})

	assert.Contains(t, got, "**Overall Performance: 72.3/100 (Grade C)**")
	assert.Contains(t, got, "- **Search (GSC)**: 12,345 clicks, 4.6 avg position\n")
	assert.Contains(t, got, "- **Web (GA4)**: 2,500 sessions, 42.3% bounce rate\n")
	assert.NotContains(t, got, "Social (Meta)")
}
