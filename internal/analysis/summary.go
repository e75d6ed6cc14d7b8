package analysis

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

// Grade maps an overall score to a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// Summary renders the markdown executive summary of a report. Only channels
// with data get a line.
func Summary(channels entities.Channels, scores entities.ScoreSet) string {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	b.WriteString("## Executive Summary\n\n")
	p.Fprintf(&b, "**Overall Performance: %.1f/100 (Grade %s)**\n\n", scores.Overall, Grade(scores.Overall))
	b.WriteString("### Channel Performance\n")

	if m := channels.GSC; m != nil {
		p.Fprintf(&b, "- **Search (GSC)**: %d clicks, %.1f avg position\n", m.TotalClicks, m.AveragePosition)
	}
	if m := channels.GA4; m != nil {
		p.Fprintf(&b, "- **Web (GA4)**: %d sessions, %.1f%% bounce rate\n", m.TotalSessions, m.BounceRate*100)
	}
	if m := channels.Meta; m != nil {
		p.Fprintf(&b, "- **Social (Meta)**: %d impressions, %d followers\n", m.TotalImpressions, m.TotalFans)
	}
	return b.String()
}
