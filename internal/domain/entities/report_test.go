package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRecord_UnmarshalJSON_Lenient(t *testing.T) {
	data := []byte(`{
		"date": "yesterday",
		"report": {
			"generated_at": "2026-02-21T10:00:00Z",
			"overall_score": 64.5,
			"grade": 7,
			"channels": {
				"gsc": {"total_clicks": 99.9, "average_position": "top"},
				"ga4": {"total_sessions": 1e3, "device_breakdown": {"mobile": 4.7, "desktop": "n/a"}},
				"meta": []
			}
		}
	}`)

	var record HistoryRecord
	require.NoError(t, json.Unmarshal(data, &record))

	assert.True(t, record.Date.IsZero())
	assert.Equal(t, time.Date(2026, 2, 21, 10, 0, 0, 0, time.UTC), record.RecordedAt().UTC())
	assert.Equal(t, 64.5, record.Report.OverallScore)
	assert.Empty(t, record.Report.Grade)

	require.NotNil(t, record.Report.Channels.GSC)
	assert.Equal(t, int64(99), record.Report.Channels.GSC.TotalClicks)
	assert.Zero(t, record.Report.Channels.GSC.AveragePosition)

	require.NotNil(t, record.Report.Channels.GA4)
	assert.Equal(t, int64(1000), record.Report.Channels.GA4.TotalSessions)
	assert.Equal(t, map[string]int64{"mobile": 4, "desktop": 0}, record.Report.Channels.GA4.DeviceBreakdown)

	assert.Nil(t, record.Report.Channels.Meta)
	assert.Equal(t, 64.5, record.Snapshot().Scores.Overall)
}

func TestHistoryRecord_UnmarshalJSON_RejectsNonObject(t *testing.T) {
	var record HistoryRecord
	assert.Error(t, json.Unmarshal([]byte(`42`), &record))
	assert.Error(t, json.Unmarshal([]byte(`null`), &record))

	var report Report
	assert.Error(t, json.Unmarshal([]byte(`"report"`), &report))

	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-02-20T10:00:00Z","report":null}`), &record))
	assert.Equal(t, 20, record.Date.Day())
	assert.Empty(t, record.Report.SiteURL)
}

func TestDecodeLenient_IntegerOverflowStaysZero(t *testing.T) {
	var out struct {
		Small int8  `json:"small"`
		Big   int64 `json:"big"`
	}
	decodeLenient([]byte(`{"small": 300.2, "big": 1e300}`), &out)

	assert.Zero(t, out.Small)
	assert.Zero(t, out.Big)
}
