// Package meta fetches page insights and posts from the Meta Graph API.
package meta

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/domain/providers"
	"github.com/sitepulse/analyst/internal/infrastructure/clients/providerapi"
	"github.com/sitepulse/analyst/pkg/config"
)

const (
	insightMetrics = "page_impressions_unique,page_post_engagements,page_views_total"
	postFields     = "id,message,created_time,likes.summary(true).limit(0),comments.summary(true).limit(0),shares"
	postLimit      = 10
)

type graphCount struct {
	Summary struct {
		TotalCount int64 `json:"total_count"`
	} `json:"summary"`
}

type graphPost struct {
	ID          string     `json:"id"`
	Message     string     `json:"message"`
	CreatedTime string     `json:"created_time"`
	Likes       graphCount `json:"likes"`
	Comments    graphCount `json:"comments"`
	Shares      struct {
		Count int64 `json:"count"`
	} `json:"shares"`
}

// Provider implements providers.SocialProvider.
type Provider struct {
	client     *providerapi.HTTPClient
	pageID     string
	apiVersion string
}

// NewProvider creates a Meta Graph provider.
func NewProvider(cfg config.MetaConfig, httpCfg config.HTTPClientConfig) *Provider {
	client := providerapi.NewClient(providerapi.Options{
		Service:     "meta",
		BaseURL:     cfg.BaseURL,
		AccessToken: cfg.AccessToken,
		Auth:        providerapi.AuthQuery,
		HTTP:        httpCfg,
	})
	return NewProviderWithClient(client, cfg.PageID, cfg.APIVersion)
}

// NewProviderWithClient allows injecting the API client (used for tests).
func NewProviderWithClient(client *providerapi.HTTPClient, pageID, apiVersion string) *Provider {
	if apiVersion == "" {
		apiVersion = "v18.0"
	}
	return &Provider{client: client, pageID: pageID, apiVersion: apiVersion}
}

var _ providers.SocialProvider = (*Provider)(nil)

// FetchSocialInsights returns page insights, the fan count and recent posts.
// Failed insights yield an empty payload; failed fan or post lookups only
// drop those fields.
func (p *Provider) FetchSocialInsights(ctx context.Context, period providers.Period) (*entities.SocialPayload, error) {
	empty := &entities.SocialPayload{Insights: []entities.Insight{}}
	if !p.client.Configured() || p.pageID == "" {
		log.Debug().Msg("Meta not configured, skipping")
		return empty, nil
	}

	base := "/" + p.apiVersion + "/" + p.pageID
	logger := log.With().Str("page", p.pageID).Logger()

	var payload entities.SocialPayload
	insightsQuery := url.Values{
		"metric": {insightMetrics},
		"period": {"day"},
		"since":  {strconv.FormatInt(period.Start.Unix(), 10)},
		"until":  {strconv.FormatInt(period.End.Unix(), 10)},
	}
	if err := p.client.GetJSON(ctx, base+"/insights", insightsQuery, &payload); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn().Err(err).Msg("Meta insights failed, continuing without social data")
		return empty, nil
	}

	var page struct {
		FanCount int64 `json:"fan_count"`
	}
	if err := p.client.GetJSON(ctx, base, url.Values{"fields": {"fan_count"}}, &page); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn().Err(err).Msg("Meta fan count lookup failed")
	}
	payload.FanCount = page.FanCount

	var posts struct {
		Data []graphPost `json:"data"`
	}
	postsQuery := url.Values{"fields": {postFields}, "limit": {strconv.Itoa(postLimit)}}
	if err := p.client.GetJSON(ctx, base+"/posts", postsQuery, &posts); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn().Err(err).Msg("Meta posts lookup failed")
	}
	payload.Posts = make([]entities.MetaPost, 0, len(posts.Data))
	for _, post := range posts.Data {
		payload.Posts = append(payload.Posts, entities.MetaPost{
			ID:          post.ID,
			Message:     post.Message,
			CreatedTime: post.CreatedTime,
			Likes:       post.Likes.Summary.TotalCount,
			Comments:    post.Comments.Summary.TotalCount,
			Shares:      post.Shares.Count,
		})
	}

	return &payload, nil
}
