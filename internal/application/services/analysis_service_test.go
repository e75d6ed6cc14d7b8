package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/analyst/internal/adapters/cache"
	"github.com/sitepulse/analyst/internal/adapters/storage"
	"github.com/sitepulse/analyst/internal/analysis"
	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/domain/providers"
	apperrors "github.com/sitepulse/analyst/pkg/errors"
)

type mockSearchProvider struct{ mock.Mock }

func (m *mockSearchProvider) FetchSearchAnalytics(ctx context.Context, siteURL string, period providers.Period) (*entities.SearchPayload, error) {
	args := m.Called(ctx, siteURL, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SearchPayload), args.Error(1)
}

type mockWebProvider struct{ mock.Mock }

func (m *mockWebProvider) FetchWebAnalytics(ctx context.Context, period providers.Period) (*entities.WebPayload, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WebPayload), args.Error(1)
}

type mockSocialProvider struct{ mock.Mock }

func (m *mockSocialProvider) FetchSocialInsights(ctx context.Context, period providers.Period) (*entities.SocialPayload, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SocialPayload), args.Error(1)
}

type mockEventBus struct{ mock.Mock }

func (m *mockEventBus) Publish(ctx context.Context, channel string, event *entities.ReportEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *mockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReportEvent, error) {
	args := m.Called(ctx, channel)
	return nil, args.Error(1)
}

func (m *mockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *mockEventBus) Close() error {
	return m.Called().Error(0)
}

type mockHistory struct{ mock.Mock }

func (m *mockHistory) LoadTail(ctx context.Context, siteURL string, n int) ([]entities.Snapshot, error) {
	args := m.Called(ctx, siteURL, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Snapshot), args.Error(1)
}

func (m *mockHistory) Append(ctx context.Context, siteURL string, record *entities.HistoryRecord) error {
	return m.Called(ctx, siteURL, record).Error(0)
}

func (m *mockHistory) Latest(ctx context.Context, siteURL string) (*entities.HistoryRecord, error) {
	args := m.Called(ctx, siteURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.HistoryRecord), args.Error(1)
}

func (m *mockHistory) Count(ctx context.Context, siteURL string) (int, error) {
	args := m.Called(ctx, siteURL)
	return args.Int(0), args.Error(1)
}

func (m *mockHistory) ListSites(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func searchPayload() *entities.SearchPayload {
	return &entities.SearchPayload{Rows: []entities.SearchRow{
		{Keys: []string{"site pulse"}, Clicks: 400, Impressions: 10000, Position: 2},
		{Keys: []string{"analytics"}, Clicks: 100, Impressions: 10000, Position: 8},
	}}
}

func webPayload() *entities.WebPayload {
	return &entities.WebPayload{Report: entities.GA4Report{
		Rows: []entities.GA4Row{{MetricValues: []entities.GA4Value{{Value: "1000"}}}},
		Totals: []entities.GA4Row{{MetricValues: []entities.GA4Value{
			{Value: "1000"}, {Value: "800"}, {Value: "2500"}, {Value: "95.5"}, {Value: "0.4"}, {Value: "20"},
		}}},
	}}
}

type fixture struct {
	service *AnalysisService
	history *storage.FileHistoryStore
	search  *mockSearchProvider
	web     *mockWebProvider
	social  *mockSocialProvider
	events  *mockEventBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	history, err := storage.NewFileHistoryStore(t.TempDir(), 90, storage.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	f := &fixture{
		history: history,
		search:  new(mockSearchProvider),
		web:     new(mockWebProvider),
		social:  new(mockSocialProvider),
		events:  new(mockEventBus),
	}
	f.service = NewAnalysisService(AnalysisDependencies{
		Engine:  analysis.NewDefaultEngine(),
		History: history,
		Search:  f.search,
		Web:     f.web,
		Social:  f.social,
		Cache:   cache.NewMemoryAdapter(),
		Events:  f.events,
	}, AnalysisServiceConfig{DefaultDays: 30, TailSize: 2, FetchTimeout: time.Second})
	f.service.now = func() time.Time { return fixedNow }
	return f
}

func TestAnalyze_FirstRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.search.On("FetchSearchAnalytics", mock.Anything, "https://www.example.com/", mock.Anything).Return(searchPayload(), nil)
	f.web.On("FetchWebAnalytics", mock.Anything, mock.Anything).Return(webPayload(), nil)
	f.social.On("FetchSocialInsights", mock.Anything, mock.Anything).Return(&entities.SocialPayload{}, nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.Analyze(ctx, AnalyzeRequest{SiteURL: "https://www.example.com/", Days: 7})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, 7, report.AnalysisPeriodDays)
	assert.Equal(t, "2026-03-03", report.StartDate)
	assert.Equal(t, "2026-03-10", report.EndDate)
	require.NotNil(t, report.Channels.GSC)
	require.NotNil(t, report.Channels.GA4)
	assert.Nil(t, report.Channels.Meta)
	assert.Equal(t, 50.0, report.Scores.MetaPerformance)
	assert.Equal(t, report.Scores.Overall, report.OverallScore)
	assert.Equal(t, analysis.Grade(report.Scores.Overall), report.Grade)
	assert.Contains(t, report.Summary, "Executive Summary")

	require.NotNil(t, report.Trends)
	assert.Equal(t, entities.TrendStatusInsufficientData, report.Trends.Status)
	assert.Equal(t, analysis.DefaultRecommendations(), report.Recommendations)

	count, err := f.history.Count(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	byID, err := f.service.LatestReport(ctx, report.ReportID)
	require.NoError(t, err)
	assert.Equal(t, report.Scores, byID.Scores)

	f.events.AssertNumberOfCalls(t, "Publish", 2)
	f.events.AssertCalled(t, "Publish", mock.Anything, providers.EventChannelReports, mock.Anything)
	f.events.AssertCalled(t, "Publish", mock.Anything, "reports:site:example.com", mock.Anything)
}

func TestAnalyze_SecondRunComputesTrendsAndFlagsDrop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	previous := &entities.HistoryRecord{
		Date: entities.NewTimestamp(fixedNow.Add(-24 * time.Hour)),
		Report: entities.Report{
			SiteURL: "example.com",
			Scores:  entities.ScoreSet{Overall: 90},
		},
	}
	require.NoError(t, f.history.Append(ctx, "example.com", previous))

	f.search.On("FetchSearchAnalytics", mock.Anything, mock.Anything, mock.Anything).Return(&entities.SearchPayload{}, nil)
	f.web.On("FetchWebAnalytics", mock.Anything, mock.Anything).Return(&entities.WebPayload{}, nil)
	f.social.On("FetchSocialInsights", mock.Anything, mock.Anything).Return(&entities.SocialPayload{}, nil)

	var published []entities.ReportEventType
	f.events.On("Publish", mock.Anything, providers.EventChannelReports, mock.Anything).
		Run(func(args mock.Arguments) {
			published = append(published, args.Get(2).(*entities.ReportEvent).EventType)
		}).
		Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.Analyze(ctx, AnalyzeRequest{SiteURL: "example.com"})
	require.NoError(t, err)

	assert.Equal(t, 57.5, report.Scores.Overall)
	require.True(t, report.Trends.Sufficient())
	assert.Equal(t, -32.5, report.Trends.Trends.Overall.ScoreChange)
	assert.Equal(t, entities.DirectionDown, report.Trends.Trends.Overall.Direction)
	require.NotEmpty(t, report.Recommendations)
	assert.Equal(t, "Overall Score Dropping", report.Recommendations[0].Title)
	assert.LessOrEqual(t, len(report.Recommendations), analysis.MaxRecommendations)

	assert.Equal(t, []entities.ReportEventType{entities.ReportEventTypeGenerated, entities.ReportEventTypeScoreDropped}, published)

	trends, count, err := f.service.Trends(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, report.Trends.Trends.Overall, trends.Trends.Overall)
}

func TestAnalyze_SelectedChannelsOnly(t *testing.T) {
	f := newFixture(t)

	f.web.On("FetchWebAnalytics", mock.Anything, mock.Anything).Return(webPayload(), nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.Analyze(context.Background(), AnalyzeRequest{
		SiteURL:  "example.com",
		Channels: []entities.Channel{entities.ChannelWeb},
	})
	require.NoError(t, err)

	assert.NotNil(t, report.Channels.GA4)
	assert.Nil(t, report.Channels.GSC)
	f.search.AssertNotCalled(t, "FetchSearchAnalytics", mock.Anything, mock.Anything, mock.Anything)
	f.social.AssertNotCalled(t, "FetchSocialInsights", mock.Anything, mock.Anything)
}

func TestAnalyze_DuplicateChannelsFetchOnce(t *testing.T) {
	f := newFixture(t)

	f.search.On("FetchSearchAnalytics", mock.Anything, mock.Anything, mock.Anything).Return(&entities.SearchPayload{}, nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.Analyze(context.Background(), AnalyzeRequest{
		SiteURL:  "example.com",
		Channels: []entities.Channel{entities.ChannelSearch, "gsc", entities.ChannelSearch},
	})
	require.NoError(t, err)

	f.search.AssertNumberOfCalls(t, "FetchSearchAnalytics", 1)
	f.web.AssertNotCalled(t, "FetchWebAnalytics", mock.Anything, mock.Anything)
	f.social.AssertNotCalled(t, "FetchSocialInsights", mock.Anything, mock.Anything)
}

func TestAnalyze_ChannelTimeoutLeavesChannelOut(t *testing.T) {
	f := newFixture(t)

	f.search.On("FetchSearchAnalytics", mock.Anything, mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)
	f.web.On("FetchWebAnalytics", mock.Anything, mock.Anything).Return(webPayload(), nil)
	f.social.On("FetchSocialInsights", mock.Anything, mock.Anything).Return(&entities.SocialPayload{}, nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.Analyze(context.Background(), AnalyzeRequest{SiteURL: "example.com"})
	require.NoError(t, err)
	assert.Nil(t, report.Channels.GSC)
	assert.Equal(t, 50.0, report.Scores.SearchVisibility)
}

func TestAnalyze_CancelledContextStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.search.On("FetchSearchAnalytics", mock.Anything, mock.Anything, mock.Anything).Return(nil, context.Canceled)
	f.web.On("FetchWebAnalytics", mock.Anything, mock.Anything).Return(nil, context.Canceled)
	f.social.On("FetchSocialInsights", mock.Anything, mock.Anything).Return(nil, context.Canceled)

	report, err := f.service.Analyze(ctx, AnalyzeRequest{SiteURL: "example.com"})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)

	count, err := f.history.Count(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAnalyze_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  AnalyzeRequest
	}{
		{name: "missing site", req: AnalyzeRequest{}},
		{name: "negative days", req: AnalyzeRequest{SiteURL: "example.com", Days: -1}},
		{name: "too many days", req: AnalyzeRequest{SiteURL: "example.com", Days: 400}},
		{name: "bad start date", req: AnalyzeRequest{SiteURL: "example.com", StartDate: "03/01/2026", EndDate: "2026-03-05"}},
		{name: "reversed dates", req: AnalyzeRequest{SiteURL: "example.com", StartDate: "2026-03-05", EndDate: "2026-03-01"}},
		{name: "unknown channel", req: AnalyzeRequest{SiteURL: "example.com", Channels: []entities.Channel{"tiktok"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Analyze(context.Background(), tt.req)
			assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
		})
	}
}

func TestAnalyze_HistoryFailure(t *testing.T) {
	history := new(mockHistory)
	service := NewAnalysisService(AnalysisDependencies{History: history}, AnalysisServiceConfig{})

	history.On("LoadTail", mock.Anything, "example.com", 1).Return(nil, apperrors.NewInternalError("failed to load history", errors.New("disk")))

	_, err := service.Analyze(context.Background(), AnalyzeRequest{SiteURL: "example.com"})
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
	history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrends_NoHistory(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.service.Trends(context.Background(), "unknown.io")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTrends_SingleReportIsInsufficient(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.history.Append(context.Background(), "example.com", &entities.HistoryRecord{}))

	trends, count, err := f.service.Trends(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, trends.Sufficient())
	assert.Equal(t, analysis.InsufficientHistoryMessage, trends.Message)
}

func TestOverviewAndChannelView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := &entities.HistoryRecord{
		Date:   entities.NewTimestamp(fixedNow.Add(-48 * time.Hour)),
		Report: entities.Report{SiteURL: "alpha.com", GeneratedAt: entities.NewTimestamp(fixedNow.Add(-48 * time.Hour))},
	}
	newer := &entities.HistoryRecord{
		Date: entities.NewTimestamp(fixedNow.Add(-time.Hour)),
		Report: entities.Report{
			SiteURL:     "beta.com",
			GeneratedAt: entities.NewTimestamp(fixedNow.Add(-time.Hour)),
			Channels: entities.Channels{GA4: (&entities.WebMetrics{
				TotalSessions: 50,
				BounceRate:    0.7,
			}).WithDefaults()},
		},
	}
	require.NoError(t, f.history.Append(ctx, "alpha.com", older))
	require.NoError(t, f.history.Append(ctx, "beta.com", newer))

	overview, err := f.service.Overview(ctx)
	require.NoError(t, err)
	assert.True(t, overview.HasData)
	assert.Equal(t, "beta.com", overview.Site)

	view, err := f.service.ChannelView(ctx, "", "web")
	require.NoError(t, err)
	assert.Equal(t, "beta.com", view.Site)
	assert.Equal(t, entities.ChannelWeb, view.Channel)
	require.NotNil(t, view.Data)
	assert.Equal(t, "Reduce Bounce Rate", view.Recommendations[0].Title)

	view, err = f.service.ChannelView(ctx, "alpha.com", "gsc")
	require.NoError(t, err)
	assert.Nil(t, view.Data)
	assert.Equal(t, "Connect Google Search Console", view.Recommendations[0].Title)

	_, err = f.service.ChannelView(ctx, "", "tiktok")
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestOverview_Empty(t *testing.T) {
	f := newFixture(t)

	overview, err := f.service.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, overview.HasData)

	_, err = f.service.ChannelView(context.Background(), "", "search")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteReport(t *testing.T) {
	f := newFixture(t)
	f.search.On("FetchSearchAnalytics", mock.Anything, mock.Anything, mock.Anything).Return(searchPayload(), nil)
	f.web.On("FetchWebAnalytics", mock.Anything, mock.Anything).Return(&entities.WebPayload{}, nil)
	f.social.On("FetchSocialInsights", mock.Anything, mock.Anything).Return(&entities.SocialPayload{}, nil)
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	report, err := f.service.Analyze(context.Background(), AnalyzeRequest{SiteURL: "example.com"})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteReport(context.Background(), report.ReportID))
	assert.True(t, apperrors.IsNotFound(f.service.DeleteReport(context.Background(), report.ReportID)))

	latest, err := f.service.LatestReport(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, report.ReportID, latest.ReportID)
}

func TestRunScheduled_UsesScheduleDays(t *testing.T) {
	tests := []struct {
		schedule string
		days     int
	}{
		{schedule: "daily", days: 1},
		{schedule: "weekly", days: 7},
		{schedule: "monthly", days: 30},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			f := newFixture(t)
			f.web.On("FetchWebAnalytics", mock.Anything, mock.Anything).Return(&entities.WebPayload{}, nil)
			f.search.On("FetchSearchAnalytics", mock.Anything, mock.Anything, mock.Anything).Return(&entities.SearchPayload{}, nil)
			f.social.On("FetchSocialInsights", mock.Anything, mock.Anything).Return(&entities.SocialPayload{}, nil)
			f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

			report, err := f.service.RunScheduled(context.Background(), "example.com", tt.schedule)
			require.NoError(t, err)
			assert.Equal(t, tt.days, report.AnalysisPeriodDays)
		})
	}
}
