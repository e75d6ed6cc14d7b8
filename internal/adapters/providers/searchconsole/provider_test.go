package searchconsole

import (
	"context"
	"encoding/json"
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

func newTestProvider(baseURL, token string) *Provider {
	client := providerapi.NewClient(providerapi.Options{
		Service:     "search-console",
		BaseURL:     baseURL,
		AccessToken: token,
		HTTP:        config.HTTPClientConfig{Timeout: time.Second, RatePerSecond: 100, Burst: 5, RetryAttempts: 1},
	})
	return NewProviderWithClient(client, 250)
}

var period = providers.Period{
	Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
}

func TestFetchSearchAnalytics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webmasters/v3/sites/sc-domain:example.com/searchAnalytics/query", r.URL.Path)

		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2026-01-01", req.StartDate)
		assert.Equal(t, "2026-01-31", req.EndDate)
		assert.Equal(t, []string{"query"}, req.Dimensions)
		assert.Equal(t, 250, req.RowLimit)

		w.Write([]byte(`{"rows":[{"keys":["pulse"],"clicks":12,"impressions":300,"ctr":0.04,"position":3.2}]}`))
	}))
	defer server.Close()

	payload, err := newTestProvider(server.URL, "token").FetchSearchAnalytics(context.Background(), "sc-domain:example.com", period)

	require.NoError(t, err)
	require.Len(t, payload.Rows, 1)
	assert.Equal(t, "pulse", payload.Rows[0].Keys[0])
	assert.Equal(t, 300.0, payload.Rows[0].Impressions)
}

func TestFetchSearchAnalytics_FailureYieldsEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	payload, err := newTestProvider(server.URL, "token").FetchSearchAnalytics(context.Background(), "https://example.com/", period)

	require.NoError(t, err)
	assert.True(t, payload.Empty())
}

func TestFetchSearchAnalytics_NotConfigured(t *testing.T) {
	payload, err := newTestProvider("http://127.0.0.1:1", "").FetchSearchAnalytics(context.Background(), "https://example.com/", period)

	require.NoError(t, err)
	assert.True(t, payload.Empty())
}

func TestFetchSearchAnalytics_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows":[]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload, err := newTestProvider(server.URL, "token").FetchSearchAnalytics(ctx, "https://example.com/", period)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, payload)
}
