package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sitepulse/analyst/internal/application/services"
	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/report"
	apperrors "github.com/sitepulse/analyst/pkg/errors"
)

// AnalysisService defines the analysis operations used by the handler.
type AnalysisService interface {
	Analyze(ctx context.Context, req services.AnalyzeRequest) (*entities.Report, error)
	LatestReport(ctx context.Context, siteOrID string) (*entities.Report, error)
	DeleteReport(ctx context.Context, reportID string) error
	Trends(ctx context.Context, site string) (entities.TrendReport, int, error)
	ListSites(ctx context.Context) ([]string, error)
}

// AnalysisHandler handles analysis and report requests.
type AnalysisHandler struct {
	service AnalysisService
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(service AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

type analyzeRequest struct {
	WebsiteURL string   `json:"website_url"`
	Days       int      `json:"days"`
	Channels   []string `json:"channels"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
}

type analyzeResponse struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	Data        *entities.Report `json:"data"`
	ReportID    string           `json:"report_id,omitempty"`
	GeneratedAt string           `json:"generated_at,omitempty"`
}

// Analyze handles POST /api/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var payload analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	channels := make([]entities.Channel, 0, len(payload.Channels))
	for _, name := range payload.Channels {
		channel, err := entities.ParseChannel(name)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		channels = append(channels, channel)
	}

	result, err := h.service.Analyze(r.Context(), services.AnalyzeRequest{
		SiteURL:   payload.WebsiteURL,
		Days:      payload.Days,
		Channels:  channels,
		StartDate: payload.StartDate,
		EndDate:   payload.EndDate,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, analyzeResponse{
		Success:     true,
		Message:     "Analysis completed successfully",
		Data:        result,
		ReportID:    result.ReportID,
		GeneratedAt: timestampString(result.GeneratedAt),
	})
}

// GetReport handles GET /api/report/{site}
func (h *AnalysisHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("site")

	result, err := h.service.LatestReport(r.Context(), site)
	if err != nil {
		if apperrors.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("No report found for site: %s", site))
			return
		}
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
		"site":    site,
	})
}

// DeleteReport handles DELETE /api/report/{id}
func (h *AnalysisHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.service.DeleteReport(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Report %s deleted", id),
	})
}

// ExportReport handles GET /api/report/{site}/export
func (h *AnalysisHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("site")
	query := r.URL.Query()

	format, err := report.ParseFormat(query.Get("format"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var section report.Section
	if format == report.FormatCSV {
		if section, err = report.ParseSection(query.Get("section")); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	result, err := h.service.LatestReport(r.Context(), site)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, format, result, section); err != nil {
		respondWithAppError(w, r, apperrors.NewInternalError("failed to render report", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format != report.FormatHTML {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(result, format, section)))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetTrends handles GET /api/trends/{site}
func (h *AnalysisHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("site")

	trends, count, err := h.service.Trends(r.Context(), site)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if !trends.Sufficient() {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": trends.Message,
			"data":    nil,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"data":          trends.Trends,
		"history_count": count,
	})
}

// ListSites handles GET /api/sites
func (h *AnalysisHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.service.ListSites(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"sites":   sites,
		"count":   len(sites),
	})
}

func timestampString(ts entities.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339Nano)
}
