package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/sitepulse/analyst/internal/analysis"
	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/domain/providers"
	"github.com/sitepulse/analyst/internal/domain/repositories"
	"github.com/sitepulse/analyst/internal/infrastructure/observability"
	"github.com/sitepulse/analyst/pkg/config"
	apperrors "github.com/sitepulse/analyst/pkg/errors"
)

const (
	maxAnalysisDays = 365

	// reportByIDTTL is how long a generated report can be fetched by its ID
	reportByIDTTL = 24 * 60 * 60
)

func reportCacheKey(id string) string {
	return fmt.Sprintf("report:id:%s", id)
}

// AnalyzeRequest selects the site, period and channels of one analysis run.
// Days is used when StartDate/EndDate (YYYY-MM-DD) are not both set.
type AnalyzeRequest struct {
	SiteURL   string
	Days      int
	Channels  []entities.Channel
	StartDate string
	EndDate   string
}

// AnalysisServiceConfig holds the service defaults
type AnalysisServiceConfig struct {
	DefaultDays  int
	DefaultSite  string
	TailSize     int
	FetchTimeout time.Duration
}

// AnalysisDependencies are the collaborators of AnalysisService. Channel
// providers, Cache, Events and Metrics may be nil.
type AnalysisDependencies struct {
	Engine  *analysis.Engine
	History repositories.HistoryRepository
	Search  providers.SearchConsoleProvider
	Web     providers.AnalyticsProvider
	Social  providers.SocialProvider
	Cache   providers.CacheProvider
	Events  providers.EventBus
	Metrics *observability.Metrics
}

// AnalysisService runs analyses and serves stored reports
type AnalysisService struct {
	engine  *analysis.Engine
	history repositories.HistoryRepository
	search  providers.SearchConsoleProvider
	web     providers.AnalyticsProvider
	social  providers.SocialProvider
	cache   providers.CacheProvider
	events  providers.EventBus
	metrics *observability.Metrics
	cfg     AnalysisServiceConfig
	now     func() time.Time
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(deps AnalysisDependencies, cfg AnalysisServiceConfig) *AnalysisService {
	if deps.Engine == nil {
		deps.Engine = analysis.NewDefaultEngine()
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 30
	}
	if cfg.TailSize < 2 {
		cfg.TailSize = 2
	}
	return &AnalysisService{
		engine:  deps.Engine,
		history: deps.History,
		search:  deps.Search,
		web:     deps.Web,
		social:  deps.Social,
		cache:   deps.Cache,
		events:  deps.Events,
		metrics: deps.Metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Analyze fetches the selected channels, scores them, compares the result
// with the previous stored report and appends the new report to history.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (report *entities.Report, err error) {
	siteURL, period, selected, err := s.resolveRequest(req)
	if err != nil {
		return nil, err
	}
	site := entities.SiteKey(siteURL)

	ctx, span := observability.StartSpan(ctx, "AnalysisService.Analyze",
		attribute.String("site", site),
		attribute.Int("days", period.Days()),
	)
	defer span.End()
	defer func() {
		observability.RecordError(span, err)
		overall := 0.0
		if report != nil {
			overall = report.Scores.Overall
		}
		observability.RecordAnalysisRun(ctx, s.metrics, site, overall, err)
	}()

	logger := observability.SiteLogger(ctx, site)
	logger.Info().Int("days", period.Days()).Int("channels", len(selected)).Msg("Starting analysis")

	channels, err := s.fetchChannels(ctx, siteURL, period, selected)
	if err != nil {
		return nil, err
	}

	scores := s.engine.ScoreChannels(channels)
	now := s.now().UTC()
	report = &entities.Report{
		ReportID:           uuid.NewString(),
		SiteURL:            siteURL,
		AnalysisPeriodDays: period.Days(),
		StartDate:          period.StartDate(),
		EndDate:            period.EndDate(),
		GeneratedAt:        entities.NewTimestamp(now),
		OverallScore:       scores.Overall,
		Grade:              analysis.Grade(scores.Overall),
		Scores:             scores,
		Channels:           channels,
		Summary:            analysis.Summary(channels, scores),
	}

	previous, err := s.history.LoadTail(ctx, siteURL, s.cfg.TailSize-1)
	if err != nil {
		return nil, err
	}
	current := entities.Snapshot{Timestamp: now, Channels: channels, Scores: scores}
	trends := s.engine.ComputeTrends(append(previous, current))
	report.Trends = &trends
	report.Recommendations = s.engine.GenerateRecommendations(scores, trends.Trends, channels, len(previous) > 0)

	record := &entities.HistoryRecord{Date: entities.NewTimestamp(now), Report: *report}
	if err := s.history.Append(ctx, siteURL, record); err != nil {
		return nil, err
	}

	s.cacheReport(ctx, report)
	s.publish(ctx, report)

	logger.Info().
		Str("report_id", report.ReportID).
		Float64("overall_score", scores.Overall).
		Str("grade", report.Grade).
		Str("trend_status", string(trends.Status)).
		Msg("Analysis completed")
	return report, nil
}

func (s *AnalysisService) resolveRequest(req AnalyzeRequest) (string, providers.Period, []entities.Channel, error) {
	siteURL := strings.TrimSpace(req.SiteURL)
	if siteURL == "" {
		siteURL = s.cfg.DefaultSite
	}
	if siteURL == "" || entities.SiteKey(siteURL) == "" {
		return "", providers.Period{}, nil, apperrors.NewValidationError("website_url is required")
	}

	var period providers.Period
	switch {
	case req.StartDate != "" && req.EndDate != "":
		start, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return "", providers.Period{}, nil, apperrors.NewValidationError("start_date must be YYYY-MM-DD")
		}
		end, err := time.Parse(time.DateOnly, req.EndDate)
		if err != nil {
			return "", providers.Period{}, nil, apperrors.NewValidationError("end_date must be YYYY-MM-DD")
		}
		if !end.After(start) {
			return "", providers.Period{}, nil, apperrors.NewValidationError("end_date must be after start_date")
		}
		period = providers.Period{Start: start, End: end}
	default:
		days := req.Days
		if days == 0 {
			days = s.cfg.DefaultDays
		}
		if days < 1 || days > maxAnalysisDays {
			return "", providers.Period{}, nil, apperrors.NewValidationError(fmt.Sprintf("days must be between 1 and %d", maxAnalysisDays))
		}
		today := s.now().UTC().Truncate(24 * time.Hour)
		period = providers.LastDays(today, days)
	}

	if len(req.Channels) == 0 {
		return siteURL, period, entities.AllChannels, nil
	}
	selected := make([]entities.Channel, 0, len(req.Channels))
	seen := make(map[entities.Channel]bool, len(req.Channels))
	for _, c := range req.Channels {
		kind, err := entities.ParseChannel(string(c))
		if err != nil {
			return "", providers.Period{}, nil, apperrors.NewValidationError(err.Error())
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		selected = append(selected, kind)
	}
	return siteURL, period, selected, nil
}

// fetchChannels fetches the selected channels concurrently. A channel that
// fails or times out is left nil; only cancellation of ctx is an error.
func (s *AnalysisService) fetchChannels(ctx context.Context, siteURL string, period providers.Period, selected []entities.Channel) (entities.Channels, error) {
	var channels entities.Channels
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(kind entities.Channel, run func(context.Context) (bool, error)) {
		g.Go(func() error {
			fctx, cancel := s.fetchContext(gctx)
			defer cancel()

			start := time.Now()
			available, err := run(fctx)
			observability.RecordChannelFetch(ctx, s.metrics, kind.Key(), available, time.Since(start))
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn().Err(err).Str("channel", kind.Key()).Msg("Channel fetch failed, continuing without it")
			}
			return nil
		})
	}

	for _, kind := range selected {
		switch kind {
		case entities.ChannelSearch:
			if s.search == nil {
				continue
			}
			fetch(kind, func(fctx context.Context) (bool, error) {
				payload, err := s.search.FetchSearchAnalytics(fctx, siteURL, period)
				if err != nil {
					return false, err
				}
				channels.GSC = analysis.NormalizeSearch(payload)
				return channels.GSC != nil, nil
			})
		case entities.ChannelWeb:
			if s.web == nil {
				continue
			}
			fetch(kind, func(fctx context.Context) (bool, error) {
				payload, err := s.web.FetchWebAnalytics(fctx, period)
				if err != nil {
					return false, err
				}
				channels.GA4 = analysis.NormalizeWeb(payload)
				return channels.GA4 != nil, nil
			})
		case entities.ChannelSocial:
			if s.social == nil {
				continue
			}
			fetch(kind, func(fctx context.Context) (bool, error) {
				payload, err := s.social.FetchSocialInsights(fctx, period)
				if err != nil {
					return false, err
				}
				channels.Meta = analysis.NormalizeSocial(payload)
				return channels.Meta != nil, nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return entities.Channels{}, err
	}
	return channels, nil
}

func (s *AnalysisService) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.FetchTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.FetchTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *AnalysisService) cacheReport(ctx context.Context, report *entities.Report) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, reportCacheKey(report.ReportID), data, reportByIDTTL); err != nil {
		log.Warn().Err(err).Str("report_id", report.ReportID).Msg("Failed to cache report")
	}
}

func (s *AnalysisService) publish(ctx context.Context, report *entities.Report) {
	if s.events == nil {
		return
	}

	events := []*entities.ReportEvent{entities.NewReportEvent(report.ReportID, entities.ReportEventTypeGenerated, report)}
	if report.Trends.Sufficient() && report.Trends.Trends.Overall.ScoreChange <= analysis.ScoreDropAlarm {
		events = append(events, entities.NewReportEvent(report.ReportID, entities.ReportEventTypeScoreDropped, report))
	}

	for _, event := range events {
		for _, channel := range []string{providers.EventChannelReports, providers.GetSiteChannel(report.SiteURL)} {
			if err := s.events.Publish(ctx, channel, event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Str("event_type", string(event.EventType)).Msg("Failed to publish report event")
			}
		}
	}
}

// LatestReport returns a report by its ID when still cached, otherwise the
// latest stored report of the site.
func (s *AnalysisService) LatestReport(ctx context.Context, siteOrID string) (*entities.Report, error) {
	siteOrID = strings.TrimSpace(siteOrID)
	if siteOrID == "" {
		return nil, apperrors.NewValidationError("site is required")
	}

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, reportCacheKey(siteOrID)); err == nil {
			var report entities.Report
			if err := json.Unmarshal(data, &report); err == nil {
				observability.RecordCacheHit(ctx, s.metrics, "report:id")
				return &report, nil
			}
		}
	}

	record, err := s.history.Latest(ctx, siteOrID)
	if err != nil {
		return nil, err
	}
	return &record.Report, nil
}

// DeleteReport drops a generated report from the by-ID store. Stored history
// is not affected.
func (s *AnalysisService) DeleteReport(ctx context.Context, reportID string) error {
	if s.cache == nil {
		return apperrors.NewNotFoundError(fmt.Sprintf("report not found: %s", reportID))
	}
	key := reportCacheKey(reportID)
	exists, err := s.cache.Exists(ctx, key)
	if err != nil {
		return apperrors.NewInternalError("failed to look up report", err)
	}
	if !exists {
		return apperrors.NewNotFoundError(fmt.Sprintf("report not found: %s", reportID))
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		return apperrors.NewInternalError("failed to delete report", err)
	}
	return nil
}

// Trends compares the two most recent stored reports of a site and returns
// the number of stored reports. A site without history is NOT_FOUND.
func (s *AnalysisService) Trends(ctx context.Context, siteURL string) (entities.TrendReport, int, error) {
	count, err := s.history.Count(ctx, siteURL)
	if err != nil {
		return entities.TrendReport{}, 0, err
	}
	if count == 0 {
		return entities.TrendReport{}, 0, apperrors.NewNotFoundError(fmt.Sprintf("no historical data found for: %s", siteURL))
	}

	tail, err := s.history.LoadTail(ctx, siteURL, s.cfg.TailSize)
	if err != nil {
		return entities.TrendReport{}, count, err
	}
	return s.engine.ComputeTrends(tail), count, nil
}

// ListSites returns the sites with stored history
func (s *AnalysisService) ListSites(ctx context.Context) ([]string, error) {
	sites, err := s.history.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	if sites == nil {
		sites = []string{}
	}
	return sites, nil
}

// Overview is the most recent report across all sites
type Overview struct {
	HasData bool
	Site    string
	Report  *entities.Report
}

// Overview returns the most recently generated report of any site
func (s *AnalysisService) Overview(ctx context.Context) (*Overview, error) {
	sites, err := s.history.ListSites(ctx)
	if err != nil {
		return nil, err
	}

	overview := &Overview{}
	var newest time.Time
	for _, site := range sites {
		record, err := s.history.Latest(ctx, site)
		if apperrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		generated := record.Report.GeneratedAt.Time
		if generated.IsZero() {
			generated = record.Date.Time
		}
		if overview.Report == nil || generated.After(newest) {
			newest = generated
			overview.HasData = true
			overview.Site = site
			overview.Report = &record.Report
		}
	}
	return overview, nil
}

// ChannelView is one channel of a report with its channel recommendations
type ChannelView struct {
	Site            string
	Channel         entities.Channel
	Data            any
	Recommendations []entities.Recommendation
}

// ChannelView returns one channel of the site's latest report, or of the
// newest report of any site when site is empty.
func (s *AnalysisService) ChannelView(ctx context.Context, site, channel string) (*ChannelView, error) {
	kind, err := entities.ParseChannel(channel)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	var report *entities.Report
	if strings.TrimSpace(site) == "" {
		overview, err := s.Overview(ctx)
		if err != nil {
			return nil, err
		}
		if !overview.HasData {
			return nil, apperrors.NewNotFoundError("no reports available")
		}
		site, report = overview.Site, overview.Report
	} else {
		if report, err = s.LatestReport(ctx, site); err != nil {
			return nil, err
		}
	}

	return &ChannelView{
		Site:            entities.SiteKey(site),
		Channel:         kind,
		Data:            report.Channels.Get(kind),
		Recommendations: analysis.ChannelRecommendations(kind, report.Channels),
	}, nil
}

// RunScheduled runs one analysis over the period of the schedule:
// daily 1 day, weekly 7 days, otherwise 30 days.
func (s *AnalysisService) RunScheduled(ctx context.Context, siteURL, schedule string) (*entities.Report, error) {
	return s.Analyze(ctx, AnalyzeRequest{SiteURL: siteURL, Days: config.ScheduleDays(schedule)})
}

// StartPeriodicAnalysis runs an analysis now and then once per schedule
// interval until ctx is cancelled.
func (s *AnalysisService) StartPeriodicAnalysis(ctx context.Context, siteURL, schedule string) {
	interval := config.ScheduleInterval(schedule)
	logger := log.With().Str("site", entities.SiteKey(siteURL)).Str("schedule", schedule).Logger()

	if _, err := s.RunScheduled(ctx, siteURL, schedule); err != nil {
		logger.Error().Err(err).Msg("Initial scheduled analysis failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("Stopping scheduled analysis")
				return
			case <-ticker.C:
				if _, err := s.RunScheduled(ctx, siteURL, schedule); err != nil {
					logger.Error().Err(err).Msg("Scheduled analysis failed")
				}
			}
		}
	}()
	logger.Info().Dur("interval", interval).Msg("Started scheduled analysis")
}
