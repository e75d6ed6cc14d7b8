package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

// Section selects the table written by WriteCSV.
type Section string

const (
	SectionSummary         Section = "summary"
	SectionSearch          Section = "search"
	SectionQueries         Section = "queries"
	SectionWeb             Section = "web"
	SectionDevices         Section = "devices"
	SectionSocial          Section = "social"
	SectionPosts           Section = "posts"
	SectionRecommendations Section = "recommendations"
)

// Sections lists every CSV section.
var Sections = []Section{
	SectionSummary, SectionSearch, SectionQueries, SectionWeb,
	SectionDevices, SectionSocial, SectionPosts, SectionRecommendations,
}

// ParseSection accepts a section name; empty means summary.
func ParseSection(value string) (Section, error) {
	s := Section(strings.ToLower(strings.TrimSpace(value)))
	if s == "" {
		return SectionSummary, nil
	}
	for _, known := range Sections {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid section %q", value)
}

// WriteCSV writes one section of the report as CSV. A section for an absent
// channel is written as the header row only.
func WriteCSV(w io.Writer, r *entities.Report, section Section) error {
	rows := csvRows(r, section)
	if rows == nil {
		return fmt.Errorf("invalid section %q", section)
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func csvRows(r *entities.Report, section Section) [][]string {
	ch := r.Channels
	switch section {
	case SectionSummary, "":
		s := r.Scores
		return [][]string{
			{"Metric", "Value", "Score"},
			{"Overall Score", num(s.Overall), num(s.Overall)},
			{"Search Visibility", num(s.SearchVisibility), num(s.SearchVisibility)},
			{"GA4 Performance", num(s.GA4Performance), num(s.GA4Performance)},
			{"Meta Performance", num(s.MetaPerformance), num(s.MetaPerformance)},
			{"Technical Health", num(s.TechnicalHealth), num(s.TechnicalHealth)},
			{"Content Performance", num(s.ContentPerformance), num(s.ContentPerformance)},
		}
	case SectionSearch:
		rows := [][]string{{"Metric", "Value"}}
		if m := ch.GSC; m != nil {
			rows = append(rows,
				[]string{"Total Queries", strconv.Itoa(m.TotalQueries)},
				[]string{"Total Clicks", integer(m.TotalClicks)},
				[]string{"Total Impressions", integer(m.TotalImpressions)},
				[]string{"Average CTR", num(m.AverageCTR)},
				[]string{"Average Position", num(m.AveragePosition)},
				[]string{"Top 3 Rankings", strconv.Itoa(m.Top3Rankings)},
				[]string{"Positions 4-10", strconv.Itoa(m.Positions4To10)},
			)
		}
		return rows
	case SectionQueries:
		rows := [][]string{{"Query", "Clicks", "Impressions", "CTR", "Position"}}
		if m := ch.GSC; m != nil {
			for _, q := range m.TopQueries {
				rows = append(rows, []string{q.Query, integer(q.Clicks), integer(q.Impressions), num(q.CTR), num(q.Position)})
			}
		}
		return rows
	case SectionWeb:
		rows := [][]string{{"Metric", "Value"}}
		if m := ch.GA4; m != nil {
			rows = append(rows,
				[]string{"Sessions", integer(m.TotalSessions)},
				[]string{"Users", integer(m.TotalUsers)},
				[]string{"Pageviews", integer(m.TotalPageviews)},
				[]string{"Avg Session Duration", num(m.AvgSessionDuration)},
				[]string{"Bounce Rate", num(m.BounceRate)},
				[]string{"Conversions", integer(m.Conversions)},
				[]string{"Conversion Rate", num(m.ConversionRate)},
			)
		}
		return rows
	case SectionDevices:
		rows := [][]string{{"Device", "Sessions"}}
		if m := ch.GA4; m != nil {
			for _, kv := range sortedCounts(m.DeviceBreakdown) {
				rows = append(rows, []string{kv.key, integer(kv.value)})
			}
		}
		return rows
	case SectionSocial:
		rows := [][]string{{"Metric", "Value"}}
		if m := ch.Meta; m != nil {
			rows = append(rows,
				[]string{"Impressions", integer(m.TotalImpressions)},
				[]string{"Engaged Users", integer(m.TotalEngagedUsers)},
				[]string{"Page Fans", integer(m.TotalFans)},
				[]string{"Engagement Rate", num(m.EngagementRate)},
				[]string{"Engagement Source", m.EngagementSource},
				[]string{"Page Views", integer(m.PageViews)},
			)
		}
		return rows
	case SectionPosts:
		rows := [][]string{{"Post ID", "Created", "Message", "Likes", "Comments", "Shares", "Total Engagement"}}
		if m := ch.Meta; m != nil {
			for _, p := range m.RecentPosts {
				rows = append(rows, []string{p.ID, p.CreatedTime, p.Message, integer(p.Likes), integer(p.Comments), integer(p.Shares), integer(p.TotalEngagement)})
			}
		}
		return rows
	case SectionRecommendations:
		rows := [][]string{{"Priority", "Category", "Title", "Description", "Action", "Impact", "Timeline"}}
		for _, rec := range r.Recommendations {
			rows = append(rows, []string{string(rec.Priority), rec.Category, rec.Title, rec.Description, rec.Action, rec.Impact, rec.Timeline})
		}
		return rows
	}
	return nil
}

type countEntry struct {
	key   string
	value int64
}

// sortedCounts orders a breakdown by count descending, then key.
func sortedCounts(m map[string]int64) []countEntry {
	out := make([]countEntry, 0, len(m))
	for k, v := range m {
		out = append(out, countEntry{key: k, value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].value != out[j].value {
			return out[i].value > out[j].value
		}
		return out[i].key < out[j].key
	})
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func integer(v int64) string {
	return strconv.FormatInt(v, 10)
}
