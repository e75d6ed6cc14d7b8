package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/domain/providers"
	"github.com/sitepulse/analyst/internal/domain/repositories"
	"github.com/sitepulse/analyst/internal/infrastructure/observability"
)

// Cache TTLs (in seconds)
const (
	latestReportTTL = 300
	historyTailTTL  = 300
	siteListTTL     = 120
)

// maxCachedTail bounds the tail sizes that are cached so Append can
// invalidate every key it may have written.
const maxCachedTail = 5

func latestCacheKey(site string) string {
	return fmt.Sprintf("history:latest:%s", site)
}

func tailCacheKey(site string, n int) string {
	return fmt.Sprintf("history:tail:%s:%d", site, n)
}

func countCacheKey(site string) string {
	return fmt.Sprintf("history:count:%s", site)
}

const sitesCacheKey = "history:sites"

// HistoryCacheKeys returns every cache key held for a site, including the
// shared site list.
func HistoryCacheKeys(site string) []string {
	keys := []string{latestCacheKey(site), countCacheKey(site), sitesCacheKey}
	for n := 1; n <= maxCachedTail; n++ {
		keys = append(keys, tailCacheKey(site, n))
	}
	return keys
}

// CachedHistoryAdapter wraps a HistoryRepository with a read-through cache.
// Writes go to the wrapped store first, then invalidate the site's keys.
type CachedHistoryAdapter struct {
	adapter repositories.HistoryRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedHistoryAdapter creates a new cached history adapter
func NewCachedHistoryAdapter(adapter repositories.HistoryRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.HistoryRepository {
	return &CachedHistoryAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

// lookup decodes a cached value into out and reports whether it was usable
func (a *CachedHistoryAdapter) lookup(ctx context.Context, key string, out any) bool {
	cached, err := a.cache.Get(ctx, key)
	if err != nil {
		observability.RecordCacheMiss(ctx, a.metrics, key)
		return false
	}
	if err := json.Unmarshal(cached, out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached history value")
		observability.RecordCacheMiss(ctx, a.metrics, key)
		return false
	}
	observability.RecordCacheHit(ctx, a.metrics, key)
	return true
}

func (a *CachedHistoryAdapter) store(ctx context.Context, key string, value any, ttl int) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache history value")
	}
}

// LoadTail returns up to n most recent snapshots with caching
func (a *CachedHistoryAdapter) LoadTail(ctx context.Context, siteURL string, n int) ([]entities.Snapshot, error) {
	if n <= 0 || n > maxCachedTail {
		return a.adapter.LoadTail(ctx, siteURL, n)
	}

	key := tailCacheKey(entities.SiteKey(siteURL), n)
	var snapshots []entities.Snapshot
	if a.lookup(ctx, key, &snapshots) {
		return snapshots, nil
	}

	snapshots, err := a.adapter.LoadTail(ctx, siteURL, n)
	if err != nil {
		return nil, err
	}
	a.store(ctx, key, snapshots, historyTailTTL)
	return snapshots, nil
}

// Append stores the record and invalidates the site's cached reads
func (a *CachedHistoryAdapter) Append(ctx context.Context, siteURL string, record *entities.HistoryRecord) error {
	if err := a.adapter.Append(ctx, siteURL, record); err != nil {
		return err
	}

	site := entities.SiteKey(siteURL)
	if err := a.cache.Delete(ctx, HistoryCacheKeys(site)...); err != nil {
		log.Warn().Err(err).Str("site", site).Msg("Failed to invalidate history cache")
	}
	return nil
}

// Latest returns the most recent record with caching
func (a *CachedHistoryAdapter) Latest(ctx context.Context, siteURL string) (*entities.HistoryRecord, error) {
	key := latestCacheKey(entities.SiteKey(siteURL))
	var record entities.HistoryRecord
	if a.lookup(ctx, key, &record) {
		return &record, nil
	}

	latest, err := a.adapter.Latest(ctx, siteURL)
	if err != nil {
		return nil, err
	}
	a.store(ctx, key, latest, latestReportTTL)
	return latest, nil
}

// Count returns the number of stored records with caching
func (a *CachedHistoryAdapter) Count(ctx context.Context, siteURL string) (int, error) {
	key := countCacheKey(entities.SiteKey(siteURL))
	var count int
	if a.lookup(ctx, key, &count) {
		return count, nil
	}

	count, err := a.adapter.Count(ctx, siteURL)
	if err != nil {
		return 0, err
	}
	a.store(ctx, key, count, historyTailTTL)
	return count, nil
}

// ListSites returns every site with stored history with caching
func (a *CachedHistoryAdapter) ListSites(ctx context.Context) ([]string, error) {
	var sites []string
	if a.lookup(ctx, sitesCacheKey, &sites) {
		return sites, nil
	}

	sites, err := a.adapter.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	a.store(ctx, sitesCacheKey, sites, siteListTTL)
	return sites, nil
}
