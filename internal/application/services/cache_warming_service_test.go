package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/analyst/internal/domain/entities"
	apperrors "github.com/sitepulse/analyst/pkg/errors"
)

func TestCacheWarmingService_WarmsEverySite(t *testing.T) {
	ctx := context.Background()
	history := new(mockHistory)
	history.On("ListSites", ctx).Return([]string{"alpha.com", "beta.com"}, nil)
	history.On("Latest", ctx, "alpha.com").Return(&entities.HistoryRecord{}, nil)
	history.On("LoadTail", ctx, "alpha.com", 3).Return([]entities.Snapshot{}, nil)
	history.On("Latest", ctx, "beta.com").Return(nil, apperrors.NewNotFoundError("no report"))

	warmed, err := NewCacheWarmingService(history, 3).WarmCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, warmed)
	history.AssertExpectations(t)
	history.AssertNotCalled(t, "LoadTail", ctx, "beta.com", mock.Anything)
}

func TestCacheWarmingService_ListFailure(t *testing.T) {
	ctx := context.Background()
	history := new(mockHistory)
	history.On("ListSites", ctx).Return(nil, errors.New("connection refused"))

	warmed, err := NewCacheWarmingService(history, 0).WarmCache(ctx)
	require.Error(t, err)
	assert.Zero(t, warmed)
}
