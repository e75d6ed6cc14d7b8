package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are accepted when reading stored dates. Older history
// files carry ISO-8601 timestamps without a zone offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp is a time that serializes as RFC3339 and parses any ISO-8601
// variant found in stored history.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp parses an ISO-8601 timestamp.
func ParseTimestamp(value string) (Timestamp, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", value)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler. Empty and null values leave the
// zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		if string(data) == "null" {
			*t = Timestamp{}
			return nil
		}
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Snapshot is one scored analysis result for a site.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Channels  Channels  `json:"channels"`
	Scores    ScoreSet  `json:"scores"`
}

// Report is the full analysis body stored in history and returned to callers.
type Report struct {
	ReportID           string           `json:"report_id,omitempty"`
	SiteURL            string           `json:"site_url"`
	AnalysisPeriodDays int              `json:"analysis_period_days"`
	StartDate          string           `json:"start_date,omitempty"`
	EndDate            string           `json:"end_date,omitempty"`
	GeneratedAt        Timestamp        `json:"generated_at"`
	OverallScore       float64          `json:"overall_score"`
	Grade              string           `json:"grade,omitempty"`
	Scores             ScoreSet         `json:"scores"`
	Channels           Channels         `json:"channels"`
	Summary            string           `json:"summary,omitempty"`
	Trends             *TrendReport     `json:"trends,omitempty"`
	Recommendations    []Recommendation `json:"recommendations,omitempty"`
}

// UnmarshalJSON decodes a stored report. Fields with an unexpected type keep
// their zero value; only a body that is not an object is an error.
func (r *Report) UnmarshalJSON(data []byte) error {
	if err := requireObject(data); err != nil {
		return err
	}
	type plain Report
	var out plain
	decodeLenient(data, &out)
	*r = Report(out)
	return nil
}

// HistoryRecord is one element of a site's stored history.
type HistoryRecord struct {
	Date   Timestamp `json:"date"`
	Report Report    `json:"report"`
}

// UnmarshalJSON decodes a stored record leniently. An unparseable date is
// left zero and RecordedAt falls back to the report's generated_at.
func (r *HistoryRecord) UnmarshalJSON(data []byte) error {
	if err := requireObject(data); err != nil {
		return err
	}
	type plain HistoryRecord
	var out plain
	decodeLenient(data, &out)
	*r = HistoryRecord(out)
	return nil
}

// RecordedAt returns the record date, or the report's generation time when
// the date is missing. Zero means the time is unknown.
func (r HistoryRecord) RecordedAt() time.Time {
	if !r.Date.IsZero() {
		return r.Date.Time
	}
	return r.Report.GeneratedAt.Time
}

func requireObject(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("expected a JSON object: %w", err)
	}
	if fields == nil {
		return errors.New("expected a JSON object, got null")
	}
	return nil
}

// Snapshot extracts the scored snapshot from a stored record. Missing values
// stay zero; a record without scores.overall falls back to overall_score.
func (r HistoryRecord) Snapshot() Snapshot {
	scores := r.Report.Scores
	if scores.Overall == 0 && r.Report.OverallScore != 0 {
		scores.Overall = r.Report.OverallScore
	}

	return Snapshot{
		Timestamp: r.RecordedAt(),
		Channels:  r.Report.Channels,
		Scores:    scores,
	}
}

// SiteKey reduces a site URL to the bare host used to key stored history,
// e.g. "https://www.example.com/blog" becomes "example.com".
func SiteKey(siteURL string) string {
	key := strings.TrimSpace(strings.ToLower(siteURL))
	key = strings.TrimPrefix(key, "sc-domain:")
	key = strings.TrimPrefix(key, "https://")
	key = strings.TrimPrefix(key, "http://")
	key = strings.TrimPrefix(key, "www.")
	if i := strings.IndexAny(key, "/?#"); i >= 0 {
		key = key[:i]
	}
	return key
}
