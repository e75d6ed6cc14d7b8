package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_JSONOutsideDevelopment(t *testing.T) {
	prev := log.Logger
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}()

	var buf bytes.Buffer
	initLogger(&buf, "analyst", "production", "")

	SiteLogger(context.Background(), "example.com").Info().Msg("analysis complete")
	GetLogger().Debug().Msg("hidden at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "analyst", entry["service"])
	assert.Equal(t, "example.com", entry["site"])
	assert.Equal(t, "analysis complete", entry["message"])
}

func TestInitLogger_ExplicitLevel(t *testing.T) {
	prev := log.Logger
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}()

	var buf bytes.Buffer
	initLogger(&buf, "analyst", "production", "warn")

	GetLogger().Info().Msg("dropped")
	assert.Zero(t, buf.Len())
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, "GET", "/api/health", 200, 0)
		RecordAnalysisRun(ctx, nil, "example.com", 70, nil)
		RecordChannelFetch(ctx, nil, "gsc", true, 0)
		RecordHistoryMetric(ctx, nil, "append", 0)
		RecordCacheHit(ctx, nil, "k")
		RecordCacheMiss(ctx, nil, "k")
	})
}

func TestInitMetrics_GlobalProvider(t *testing.T) {
	metrics, err := InitMetrics()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		RecordAnalysisRun(context.Background(), metrics, "example.com", 70, nil)
	})
}
