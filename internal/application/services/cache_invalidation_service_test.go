package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/analyst/internal/adapters/cache"
	"github.com/sitepulse/analyst/internal/domain/entities"
)

type chanEventBus struct {
	events chan *entities.ReportEvent
}

func newChanEventBus() *chanEventBus {
	return &chanEventBus{events: make(chan *entities.ReportEvent, 4)}
}

func (b *chanEventBus) Publish(ctx context.Context, channel string, event *entities.ReportEvent) error {
	b.events <- event
	return nil
}

func (b *chanEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReportEvent, error) {
	return b.events, nil
}

func (b *chanEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *chanEventBus) Close() error { return nil }

func siteKeys(site string) []string {
	return []string{"history:latest:" + site, "history:sites"}
}

func TestCacheInvalidationService_DropsSiteKeysOnReport(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryAdapter()
	for _, key := range []string{"history:latest:example.com", "history:sites", "history:latest:other.com"} {
		require.NoError(t, c.Set(ctx, key, []byte("x"), 0))
	}

	bus := newChanEventBus()
	svc := NewCacheInvalidationService(c, bus, siteKeys)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	report := &entities.Report{SiteURL: "https://www.example.com/"}
	require.NoError(t, bus.Publish(ctx, "", entities.NewReportEvent("r1", entities.ReportEventTypeGenerated, report)))

	assert.Eventually(t, func() bool {
		ok, _ := c.Exists(ctx, "history:latest:example.com")
		return !ok
	}, time.Second, 10*time.Millisecond)

	ok, err := c.Exists(ctx, "history:sites")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Exists(ctx, "history:latest:other.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheInvalidationService_IgnoresOtherEvents(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryAdapter()
	require.NoError(t, c.Set(ctx, "history:sites", []byte("x"), 0))

	bus := newChanEventBus()
	svc := NewCacheInvalidationService(c, bus, siteKeys)
	require.NoError(t, svc.Start())

	report := &entities.Report{SiteURL: "example.com"}
	require.NoError(t, bus.Publish(ctx, "", entities.NewReportEvent("r1", entities.ReportEventTypeScoreDropped, report)))
	require.NoError(t, bus.Publish(ctx, "", nil))

	assert.Never(t, func() bool {
		ok, _ := c.Exists(ctx, "history:sites")
		return !ok
	}, 100*time.Millisecond, 10*time.Millisecond)
	svc.Stop()
}

func TestCacheInvalidationService_InvalidateSiteNormalizesKey(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryAdapter()
	require.NoError(t, c.Set(ctx, "history:latest:example.com", []byte("x"), 0))

	svc := NewCacheInvalidationService(c, newChanEventBus(), siteKeys)
	require.NoError(t, svc.InvalidateSite(ctx, "sc-domain:Example.com"))

	ok, err := c.Exists(ctx, "history:latest:example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	empty := NewCacheInvalidationService(c, newChanEventBus())
	assert.NoError(t, empty.InvalidateSite(ctx, "example.com"))
}
