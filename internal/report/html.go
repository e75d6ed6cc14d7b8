package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

// ScoreCard is one category score tile on the dashboard.
type ScoreCard struct {
	Label string
	Score float64
	Class string
}

// MetricRow is a label/value pair in a channel table.
type MetricRow struct {
	Label string
	Value string
}

// ChannelTable is the metric table of one connected channel.
type ChannelTable struct {
	Title string
	Rows  []MetricRow
}

// TrendBadge shows the overall score change against the previous run.
type TrendBadge struct {
	Text  string
	Class string
}

// DashboardData is the view model of the HTML dashboard.
type DashboardData struct {
	Site            string
	GeneratedAt     string
	PeriodDays      int
	OverallScore    float64
	Grade           string
	Trend           *TrendBadge
	Scores          []ScoreCard
	Channels        []ChannelTable
	Recommendations []entities.Recommendation
}

// NewDashboardData builds the dashboard view of a report.
func NewDashboardData(r *entities.Report) DashboardData {
	p := message.NewPrinter(language.English)
	s := r.Scores

	data := DashboardData{
		Site:         r.SiteURL,
		PeriodDays:   r.AnalysisPeriodDays,
		OverallScore: s.Overall,
		Grade:        r.Grade,
		Scores: []ScoreCard{
			scoreCard("Search Visibility", s.SearchVisibility),
			scoreCard("GA4 Performance", s.GA4Performance),
			scoreCard("Meta Performance", s.MetaPerformance),
			scoreCard("Technical Health", s.TechnicalHealth),
			scoreCard("Content Performance", s.ContentPerformance),
		},
		Recommendations: r.Recommendations,
	}
	if !r.GeneratedAt.IsZero() {
		data.GeneratedAt = r.GeneratedAt.Format("2006-01-02 15:04 MST")
	}
	if r.Trends != nil && r.Trends.Sufficient() {
		data.Trend = trendBadge(r.Trends.Trends.Overall)
	}

	if m := r.Channels.GSC; m != nil {
		data.Channels = append(data.Channels, ChannelTable{
			Title: entities.ChannelSearch.Label(),
			Rows: []MetricRow{
				{"Total Clicks", p.Sprintf("%d", m.TotalClicks)},
				{"Total Impressions", p.Sprintf("%d", m.TotalImpressions)},
				{"Average CTR", p.Sprintf("%.2f%%", m.AverageCTR*100)},
				{"Average Position", p.Sprintf("%.1f", m.AveragePosition)},
				{"Top 3 Rankings", p.Sprintf("%d", m.Top3Rankings)},
			},
		})
	}
	if m := r.Channels.GA4; m != nil {
		data.Channels = append(data.Channels, ChannelTable{
			Title: entities.ChannelWeb.Label(),
			Rows: []MetricRow{
				{"Sessions", p.Sprintf("%d", m.TotalSessions)},
				{"Users", p.Sprintf("%d", m.TotalUsers)},
				{"Bounce Rate", p.Sprintf("%.1f%%", m.BounceRate*100)},
				{"Conversions", p.Sprintf("%d", m.Conversions)},
				{"Conversion Rate", p.Sprintf("%.2f%%", m.ConversionRate*100)},
			},
		})
	}
	if m := r.Channels.Meta; m != nil {
		data.Channels = append(data.Channels, ChannelTable{
			Title: entities.ChannelSocial.Label(),
			Rows: []MetricRow{
				{"Impressions", p.Sprintf("%d", m.TotalImpressions)},
				{"Engaged Users", p.Sprintf("%d", m.TotalEngagedUsers)},
				{"Page Fans", p.Sprintf("%d", m.TotalFans)},
				{"Engagement Rate", p.Sprintf("%.2f%%", m.EngagementRate*100)},
			},
		})
	}
	return data
}

func scoreCard(label string, score float64) ScoreCard {
	class := "score-low"
	switch {
	case score >= 80:
		class = "score-high"
	case score >= 60:
		class = "score-mid"
	}
	return ScoreCard{Label: label, Score: score, Class: class}
}

func trendBadge(t entities.OverallTrend) *TrendBadge {
	switch {
	case t.ScoreChange > 0:
		return &TrendBadge{Text: fmt.Sprintf("[+%.1f pts]", t.ScoreChange), Class: "trend-up"}
	case t.ScoreChange < 0:
		return &TrendBadge{Text: fmt.Sprintf("[%.1f pts]", t.ScoreChange), Class: "trend-down"}
	}
	return &TrendBadge{Text: "[no change]", Class: "trend-stable"}
}

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"score":    func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"priority": func(p entities.Priority) string { return "priority-" + strings.ToLower(string(p)) },
}).Parse(dashboardHTML))

// WriteHTML renders the dashboard as a standalone HTML page.
func WriteHTML(w io.Writer, data DashboardData) error {
	if err := dashboardTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Marketing Dashboard - {{.Site}}</title>
<style>
body { font-family: -apple-system, Segoe UI, Roboto, sans-serif; margin: 2rem; color: #1f2933; }
.cards { display: flex; flex-wrap: wrap; gap: 1rem; }
.card { border: 1px solid #d9e2ec; border-radius: 8px; padding: 1rem; min-width: 160px; }
.score-high { color: #1b873f; } .score-mid { color: #b7791f; } .score-low { color: #c53030; }
.trend-up { color: #1b873f; } .trend-down { color: #c53030; } .trend-stable { color: #627d98; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
td, th { border-bottom: 1px solid #e4e7eb; padding: .4rem .8rem; text-align: left; }
.priority-critical { border-left: 4px solid #c53030; } .priority-high { border-left: 4px solid #dd6b20; }
.priority-growth { border-left: 4px solid #1b873f; } .priority-medium { border-left: 4px solid #b7791f; }
.priority-low { border-left: 4px solid #627d98; }
.rec { padding: .5rem 1rem; margin-bottom: .75rem; }
</style>
</head>
<body>
<h1>Marketing Dashboard</h1>
<p>{{.Site}}{{if .GeneratedAt}} &middot; generated {{.GeneratedAt}}{{end}}{{if .PeriodDays}} &middot; last {{.PeriodDays}} days{{end}}</p>
<h2>Overall Score: {{score .OverallScore}}/100{{if .Grade}} (Grade {{.Grade}}){{end}}{{with .Trend}} <span class="{{.Class}}">{{.Text}}</span>{{end}}</h2>
<div class="cards">
{{- range .Scores}}
<div class="card"><div>{{.Label}}</div><strong class="{{.Class}}">{{score .Score}}</strong></div>
{{- end}}
</div>
{{- range .Channels}}
<h2>{{.Title}}</h2>
<table>
{{- range .Rows}}
<tr><th>{{.Label}}</th><td>{{.Value}}</td></tr>
{{- end}}
</table>
{{- else}}
<p>No channel data available.</p>
{{- end}}
<h2>Recommendations</h2>
{{- range .Recommendations}}
<div class="rec {{priority .Priority}}">
<strong>[{{.Priority}}] {{.Title}}</strong> <em>{{.Category}}</em>
<p>{{.Description}}</p>
{{- if .Action}}<p>Action: {{.Action}}</p>{{end}}
{{- if .Impact}}<p>Impact: {{.Impact}}{{if .Timeline}} &middot; {{.Timeline}}{{end}}</p>{{end}}
</div>
{{- else}}
<p>No recommendations.</p>
{{- end}}
</body>
</html>
`
