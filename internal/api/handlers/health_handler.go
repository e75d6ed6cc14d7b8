package handlers

import (
	"net/http"
	"time"
)

// HealthHandler reports service liveness.
type HealthHandler struct {
	service string
	version string
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service, version string) *HealthHandler {
	return &HealthHandler{service: service, version: version, started: time.Now()}
}

// Health handles GET /health and GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   h.service,
		"version":   h.version,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
