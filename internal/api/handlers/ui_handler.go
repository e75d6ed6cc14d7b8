package handlers

import (
	"context"
	"net/http"

	"github.com/sitepulse/analyst/internal/application/services"
	"github.com/sitepulse/analyst/internal/domain/entities"
)

// DashboardService defines the read model used by the dashboard UI.
type DashboardService interface {
	Overview(ctx context.Context) (*services.Overview, error)
	ChannelView(ctx context.Context, site, channel string) (*services.ChannelView, error)
}

// UIHandler serves compact views of the latest reports for dashboards.
type UIHandler struct {
	service DashboardService
}

// NewUIHandler creates a new UI handler.
func NewUIHandler(service DashboardService) *UIHandler {
	return &UIHandler{service: service}
}

type overviewChannels struct {
	Search any `json:"search"`
	Web    any `json:"web"`
	Social any `json:"social"`
}

type overviewData struct {
	HasData           bool               `json:"hasData"`
	Message           string             `json:"message,omitempty"`
	Site              string             `json:"site,omitempty"`
	OverallScore      float64            `json:"overallScore"`
	SearchClicks      int64              `json:"searchClicks"`
	WebSessions       int64              `json:"webSessions"`
	SocialImpressions int64              `json:"socialImpressions"`
	BounceRate        float64            `json:"bounceRate"`
	Engagement        float64            `json:"engagement"`
	Scores            *entities.ScoreSet `json:"scores,omitempty"`
	Channels          *overviewChannels  `json:"channels,omitempty"`
}

// Overview handles GET /api/ui/overview
func (h *UIHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if !overview.HasData {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"hasData": false,
				"message": "No reports available. Run /api/analyze first.",
			},
		})
		return
	}

	rep := overview.Report
	data := overviewData{
		HasData:      true,
		Site:         overview.Site,
		OverallScore: rep.Scores.Overall,
		Scores:       &rep.Scores,
		Channels: &overviewChannels{
			Search: emptyIfNil(rep.Channels.Get(entities.ChannelSearch)),
			Web:    emptyIfNil(rep.Channels.Get(entities.ChannelWeb)),
			Social: emptyIfNil(rep.Channels.Get(entities.ChannelSocial)),
		},
	}
	if m := rep.Channels.GSC; m != nil {
		data.SearchClicks = m.TotalClicks
	}
	if m := rep.Channels.GA4; m != nil {
		data.WebSessions = m.TotalSessions
		data.BounceRate = m.BounceRate
	}
	if m := rep.Channels.Meta; m != nil {
		data.SocialImpressions = m.TotalImpressions
		data.Engagement = m.EngagementRate
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// Channel handles GET /api/ui/channels/{channel}
func (h *UIHandler) Channel(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")

	view, err := h.service.ChannelView(r.Context(), r.URL.Query().Get("site"), channel)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"channel":         string(view.Channel),
		"site":            view.Site,
		"data":            emptyIfNil(view.Data),
		"recommendations": view.Recommendations,
	})
}

func emptyIfNil(v any) any {
	if v == nil {
		return struct{}{}
	}
	return v
}
