package routes

import (
	"net/http"

	"github.com/sitepulse/analyst/internal/api/handlers"
	"github.com/sitepulse/analyst/internal/api/middleware"
	"github.com/sitepulse/analyst/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	healthHandler   *handlers.HealthHandler
	analysisHandler *handlers.AnalysisHandler
	uiHandler       *handlers.UIHandler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// NewRouter creates a new router. cacheMiddleware may be nil.
func NewRouter(
	healthHandler *handlers.HealthHandler,
	analysisHandler *handlers.AnalysisHandler,
	uiHandler *handlers.UIHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		healthHandler:   healthHandler,
		analysisHandler: analysisHandler,
		uiHandler:       uiHandler,
		cacheMiddleware: cacheMiddleware,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /api/health", r.healthHandler.Health)

	// Analysis and report endpoints
	r.mux.HandleFunc("POST /api/analyze", r.analysisHandler.Analyze)
	r.mux.HandleFunc("GET /api/report/{site}", r.analysisHandler.GetReport)
	r.mux.HandleFunc("GET /api/report/{site}/export", r.analysisHandler.ExportReport)
	r.mux.HandleFunc("DELETE /api/report/{id}", r.analysisHandler.DeleteReport)
	r.mux.HandleFunc("GET /api/trends/{site}", r.analysisHandler.GetTrends)
	r.mux.HandleFunc("GET /api/sites", r.analysisHandler.ListSites)

	// Dashboard UI endpoints
	r.mux.HandleFunc("GET /api/ui/overview", r.uiHandler.Overview)
	r.mux.HandleFunc("GET /api/ui/channels/{channel}", r.uiHandler.Channel)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
