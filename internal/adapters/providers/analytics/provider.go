// Package analytics fetches reports from the Google Analytics 4 Data API.
package analytics

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/domain/providers"
	"github.com/sitepulse/analyst/internal/infrastructure/clients/providerapi"
	"github.com/sitepulse/analyst/pkg/config"
)

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type named struct {
	Name string `json:"name"`
}

type runReportRequest struct {
	DateRanges         []dateRange `json:"dateRanges"`
	Dimensions         []named     `json:"dimensions"`
	Metrics            []named     `json:"metrics"`
	MetricAggregations []string    `json:"metricAggregations,omitempty"`
	Limit              int         `json:"limit,omitempty"`
}

func names(values ...string) []named {
	out := make([]named, len(values))
	for i, v := range values {
		out[i] = named{Name: v}
	}
	return out
}

// Provider implements providers.AnalyticsProvider.
type Provider struct {
	client     *providerapi.HTTPClient
	propertyID string
}

// NewProvider creates a GA4 provider.
func NewProvider(cfg config.GA4Config, httpCfg config.HTTPClientConfig) *Provider {
	client := providerapi.NewClient(providerapi.Options{
		Service:     "ga4",
		BaseURL:     cfg.BaseURL,
		AccessToken: cfg.AccessToken,
		Auth:        providerapi.AuthBearer,
		HTTP:        httpCfg,
	})
	return NewProviderWithClient(client, cfg.PropertyID)
}

// NewProviderWithClient allows injecting the API client (used for tests).
func NewProviderWithClient(client *providerapi.HTTPClient, propertyID string) *Provider {
	return &Provider{client: client, propertyID: propertyID}
}

var _ providers.AnalyticsProvider = (*Provider)(nil)

// FetchWebAnalytics runs the summary report with totals and a device/source
// breakdown. A failed summary yields an empty payload; a failed breakdown
// only drops the breakdown.
func (p *Provider) FetchWebAnalytics(ctx context.Context, period providers.Period) (*entities.WebPayload, error) {
	empty := &entities.WebPayload{}
	if !p.client.Configured() || p.propertyID == "" {
		log.Debug().Msg("GA4 not configured, skipping")
		return empty, nil
	}

	path := "/v1beta/properties/" + p.propertyID + ":runReport"
	dates := []dateRange{{StartDate: period.StartDate(), EndDate: period.EndDate()}}

	var payload entities.WebPayload
	summary := runReportRequest{
		DateRanges:         dates,
		Dimensions:         names("date", "deviceCategory", "sessionSource"),
		Metrics:            names(entities.GA4SummaryMetrics...),
		MetricAggregations: []string{"TOTAL"},
		Limit:              10000,
	}
	if err := p.client.PostJSON(ctx, path, summary, &payload.Report); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Str("property", p.propertyID).Msg("GA4 report failed, continuing without web data")
		return empty, nil
	}

	breakdown := runReportRequest{
		DateRanges: dates,
		Dimensions: names("deviceCategory", "sessionSource"),
		Metrics:    names("sessions"),
		Limit:      1000,
	}
	if err := p.client.PostJSON(ctx, path, breakdown, &payload.Breakdown); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Str("property", p.propertyID).Msg("GA4 breakdown report failed")
		payload.Breakdown = entities.GA4Report{}
	}

	return &payload, nil
}
