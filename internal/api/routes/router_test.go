package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/analyst/internal/adapters/cache"
	"github.com/sitepulse/analyst/internal/adapters/storage"
	"github.com/sitepulse/analyst/internal/api/handlers"
	"github.com/sitepulse/analyst/internal/api/middleware"
	"github.com/sitepulse/analyst/internal/application/services"
)

func newTestHandler(t *testing.T, origins []string) http.Handler {
	t.Helper()

	history, err := storage.NewFileHistoryStore(t.TempDir(), 90)
	require.NoError(t, err)
	memCache := cache.NewMemoryAdapter()
	service := services.NewAnalysisService(services.AnalysisDependencies{
		History: history,
		Cache:   memCache,
	}, services.AnalysisServiceConfig{DefaultDays: 30, TailSize: 2})

	router := NewRouter(
		handlers.NewHealthHandler("sitepulse-analyst", "test"),
		handlers.NewAnalysisHandler(service),
		handlers.NewUIHandler(service),
		middleware.NewCacheMiddleware(memCache),
		origins,
		nil,
	)
	return router.SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	handler := newTestHandler(t, nil)

	for _, path := range []string{"/health", "/api/health"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	}
}

func TestRouter_AnalyzeThenRead(t *testing.T) {
	handler := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"website_url":"https://www.example.com","days":7}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var analyzed struct {
		Success  bool   `json:"success"`
		ReportID string `json:"report_id"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&analyzed))
	assert.True(t, analyzed.Success)
	require.NotEmpty(t, analyzed.ReportID)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/report/example.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/report/"+analyzed.ReportID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trends/example.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/report/"+analyzed.ReportID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/report/"+analyzed.ReportID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SitesResponseIsCached(t *testing.T) {
	handler := newTestHandler(t, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sites", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sites", nil))
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestRouter_CORS(t *testing.T) {
	handler := newTestHandler(t, []string{"https://dash.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://dash.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
