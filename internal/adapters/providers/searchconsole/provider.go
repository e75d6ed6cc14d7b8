// Package searchconsole fetches query data from the Google Search Console API.
package searchconsole

import (
	"context"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/domain/providers"
	"github.com/sitepulse/analyst/internal/infrastructure/clients/providerapi"
	"github.com/sitepulse/analyst/pkg/config"
)

const defaultRowLimit = 1000

type queryRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit"`
}

// Provider implements providers.SearchConsoleProvider.
type Provider struct {
	client   *providerapi.HTTPClient
	rowLimit int
}

// NewProvider creates a Search Console provider.
func NewProvider(cfg config.SearchConsoleConfig, httpCfg config.HTTPClientConfig) *Provider {
	client := providerapi.NewClient(providerapi.Options{
		Service:     "search-console",
		BaseURL:     cfg.BaseURL,
		AccessToken: cfg.AccessToken,
		Auth:        providerapi.AuthBearer,
		HTTP:        httpCfg,
	})
	return NewProviderWithClient(client, cfg.RowLimit)
}

// NewProviderWithClient allows injecting the API client (used for tests).
func NewProviderWithClient(client *providerapi.HTTPClient, rowLimit int) *Provider {
	if rowLimit <= 0 {
		rowLimit = defaultRowLimit
	}
	return &Provider{client: client, rowLimit: rowLimit}
}

var _ providers.SearchConsoleProvider = (*Provider)(nil)

// FetchSearchAnalytics returns query rows ordered by clicks. API failures are
// logged and yield an empty payload.
func (p *Provider) FetchSearchAnalytics(ctx context.Context, siteURL string, period providers.Period) (*entities.SearchPayload, error) {
	empty := &entities.SearchPayload{Rows: []entities.SearchRow{}}
	if !p.client.Configured() || siteURL == "" {
		log.Debug().Msg("Search Console not configured, skipping")
		return empty, nil
	}

	path := "/webmasters/v3/sites/" + url.PathEscape(siteURL) + "/searchAnalytics/query"
	req := queryRequest{
		StartDate:  period.StartDate(),
		EndDate:    period.EndDate(),
		Dimensions: []string{"query"},
		RowLimit:   p.rowLimit,
	}

	var resp entities.SearchPayload
	if err := p.client.PostJSON(ctx, path, req, &resp); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Str("site", siteURL).Msg("Search Console query failed, continuing without search data")
		return empty, nil
	}
	if resp.Rows == nil {
		resp.Rows = []entities.SearchRow{}
	}
	return &resp, nil
}
