package entities

import (
	"time"

	"github.com/google/uuid"
)

// ReportEventType represents the type of report event
type ReportEventType string

const (
	ReportEventTypeGenerated    ReportEventType = "report_generated"
	ReportEventTypeScoreDropped ReportEventType = "score_dropped"
)

// ReportEvent is published when an analysis run stores a new report
type ReportEvent struct {
	ID           string          `json:"id"`
	ReportID     string          `json:"report_id"`
	Site         string          `json:"site"`
	EventType    ReportEventType `json:"event_type"`
	Timestamp    time.Time       `json:"timestamp"`
	OverallScore float64         `json:"overall_score"`
	Grade        string          `json:"grade"`
	ScoreChange  float64         `json:"score_change"`
	Channels     []string        `json:"channels"`
}

// NewReportEvent creates a report event for a stored report
func NewReportEvent(reportID string, eventType ReportEventType, report *Report) *ReportEvent {
	channels := make([]string, 0, len(AllChannels))
	for _, c := range AllChannels {
		if report.Channels.Has(c) {
			channels = append(channels, c.Key())
		}
	}

	event := &ReportEvent{
		ID:           uuid.NewString(),
		ReportID:     reportID,
		Site:         SiteKey(report.SiteURL),
		EventType:    eventType,
		Timestamp:    time.Now().UTC(),
		OverallScore: report.Scores.Overall,
		Grade:        report.Grade,
		Channels:     channels,
	}
	if report.Trends != nil && report.Trends.Sufficient() {
		event.ScoreChange = report.Trends.Trends.Overall.ScoreChange
	}
	return event
}
