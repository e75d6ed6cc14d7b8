package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/analyst/internal/domain/providers"
	"github.com/sitepulse/analyst/internal/infrastructure/clients/providerapi"
	"github.com/sitepulse/analyst/pkg/config"
)

func newTestProvider(baseURL string) *Provider {
	client := providerapi.NewClient(providerapi.Options{
		Service:     "meta",
		BaseURL:     baseURL,
		AccessToken: "page-token",
		Auth:        providerapi.AuthQuery,
		HTTP:        config.HTTPClientConfig{Timeout: time.Second, RatePerSecond: 100, Burst: 5, RetryAttempts: 1},
	})
	return NewProviderWithClient(client, "987", "v19.0")
}

var period = providers.LastDays(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 7)

func TestFetchSocialInsights(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "page-token", r.URL.Query().Get("access_token"))
		switch r.URL.Path {
		case "/v19.0/987/insights":
			assert.Equal(t, insightMetrics, r.URL.Query().Get("metric"))
			w.Write([]byte(`{"data":[{"name":"page_impressions_unique","period":"day","values":[{"value":120},{"value":80}]}]}`))
		case "/v19.0/987":
			w.Write([]byte(`{"fan_count":1500,"id":"987"}`))
		case "/v19.0/987/posts":
			w.Write([]byte(`{"data":[{"id":"p1","message":"hello","created_time":"2026-01-30T10:00:00+0000","likes":{"summary":{"total_count":7}},"comments":{"summary":{"total_count":2}},"shares":{"count":1}}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	payload, err := newTestProvider(server.URL).FetchSocialInsights(context.Background(), period)

	require.NoError(t, err)
	require.Len(t, payload.Insights, 1)
	assert.Len(t, payload.Insights[0].Values, 2)
	assert.Equal(t, int64(1500), payload.FanCount)
	require.Len(t, payload.Posts, 1)
	assert.Equal(t, int64(7), payload.Posts[0].Likes)
	assert.Equal(t, int64(2), payload.Posts[0].Comments)
	assert.Equal(t, int64(1), payload.Posts[0].Shares)
}

func TestFetchSocialInsights_PostFailureKeepsInsights(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v19.0/987/insights":
			w.Write([]byte(`{"data":[{"name":"page_impressions_unique","period":"day","values":[{"value":50}]}]}`))
		default:
			http.Error(w, `{"error":{"message":"permission"}}`, http.StatusForbidden)
		}
	}))
	defer server.Close()

	payload, err := newTestProvider(server.URL).FetchSocialInsights(context.Background(), period)

	require.NoError(t, err)
	assert.False(t, payload.Empty())
	assert.Zero(t, payload.FanCount)
	assert.Empty(t, payload.Posts)
}

func TestFetchSocialInsights_InsightFailureYieldsEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired token", http.StatusBadRequest)
	}))
	defer server.Close()

	payload, err := newTestProvider(server.URL).FetchSocialInsights(context.Background(), period)

	require.NoError(t, err)
	assert.True(t, payload.Empty())
}
