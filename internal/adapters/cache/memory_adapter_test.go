package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAdapter_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	adapter := newMemoryAdapter(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "short", []byte("a"), 10))
	require.NoError(t, adapter.Set(ctx, "forever", []byte("b"), 0))

	got, err := adapter.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))

	now = now.Add(11 * time.Second)

	_, err = adapter.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	exists, _ := adapter.Exists(ctx, "forever")
	assert.True(t, exists)

	require.NoError(t, adapter.Delete(ctx, "forever"))
	exists, _ = adapter.Exists(ctx, "forever")
	assert.False(t, exists)
}

func TestMemoryAdapter_ReturnsCopies(t *testing.T) {
	adapter := NewMemoryAdapter()
	ctx := context.Background()

	value := []byte("report")
	require.NoError(t, adapter.Set(ctx, "k", value, 0))
	value[0] = 'X'

	got, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'Y'

	again, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "report", string(again))
}
