package providers

import (
	"context"
	"time"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

// Period is an inclusive date range requested from a channel API.
type Period struct {
	Start time.Time
	End   time.Time
}

// LastDays returns the period of n days ending at end.
func LastDays(end time.Time, days int) Period {
	if days < 1 {
		days = 1
	}
	return Period{Start: end.AddDate(0, 0, -days), End: end}
}

// Days returns the number of days covered by the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24 + 0.5)
}

// StartDate formats the start as YYYY-MM-DD.
func (p Period) StartDate() string {
	return p.Start.Format(time.DateOnly)
}

// EndDate formats the end as YYYY-MM-DD.
func (p Period) EndDate() string {
	return p.End.Format(time.DateOnly)
}

// The channel providers return an empty payload, not an error, when the
// upstream API fails. Errors are reserved for a cancelled context.

// SearchConsoleProvider fetches Search Console query data.
type SearchConsoleProvider interface {
	FetchSearchAnalytics(ctx context.Context, siteURL string, period Period) (*entities.SearchPayload, error)
}

// AnalyticsProvider fetches GA4 report data.
type AnalyticsProvider interface {
	FetchWebAnalytics(ctx context.Context, period Period) (*entities.WebPayload, error)
}

// SocialProvider fetches Meta page insights and recent posts.
type SocialProvider interface {
	FetchSocialInsights(ctx context.Context, period Period) (*entities.SocialPayload, error)
}
