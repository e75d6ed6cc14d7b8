package app

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/analyst/internal/adapters/cache"
	"github.com/sitepulse/analyst/internal/application/services"
	"github.com/sitepulse/analyst/pkg/config"
	apperrors "github.com/sitepulse/analyst/pkg/errors"
)

func testConfig(t *testing.T) *config.Config {
	t.Setenv("HISTORY_DIR", t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNew_FileBackendWithoutRedis(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.IsType(t, &cache.MemoryAdapter{}, a.Cache)
	assert.Nil(t, a.Events)
	assert.NotNil(t, a.Metrics)

	// No channel credentials: the run stores a report without channel data.
	report, err := a.Service.Analyze(context.Background(), services.AnalyzeRequest{SiteURL: "example.com", Days: 7})
	require.NoError(t, err)
	assert.Nil(t, report.Channels.GSC)

	sites, err := a.Service.ListSites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, sites)
}

func TestNew_RedisCacheAndEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Host, cfg.Redis.Port = splitAddr(t, mr)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.IsType(t, &cache.RedisAdapter{}, a.Cache)
	require.NotNil(t, a.Events)
	assert.Nil(t, a.Warmer, "file history is not served through the cache")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	report, err := a.Service.Analyze(ctx, services.AnalyzeRequest{SiteURL: "example.com", Days: 1})
	require.NoError(t, err)
	assert.True(t, mr.Exists("report:id:"+report.ReportID))
}

func TestNew_UnreachableRedisFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Host, cfg.Redis.Port = "127.0.0.1", 1

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.IsType(t, &cache.MemoryAdapter{}, a.Cache)
}

func TestNew_InvalidWeights(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.WebWeight = 0.9

	a, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Equal(t, apperrors.ErrorTypeConfiguration, apperrors.TypeOf(err))
}

func splitAddr(t *testing.T, mr *miniredis.Miniredis) (string, int) {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return mr.Host(), port
}
