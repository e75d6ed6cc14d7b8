package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sitepulse/analyst/internal/api/handlers"
	"github.com/sitepulse/analyst/internal/api/middleware"
	"github.com/sitepulse/analyst/internal/api/routes"
	"github.com/sitepulse/analyst/internal/app"
	"github.com/sitepulse/analyst/internal/infrastructure/observability"
	"github.com/sitepulse/analyst/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger("sitepulse-analyst", "production")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize analysis service")
	}
	defer application.Close()

	if cfg.Analysis.ScheduleEnabled {
		site := cfg.Analysis.DefaultSite
		if site == "" {
			site = cfg.SearchConsole.SiteURL
		}
		if site == "" {
			log.Warn().Msg("Scheduled analysis enabled but no site configured (ANALYSIS_SITE_URL)")
		} else {
			go application.Service.StartPeriodicAnalysis(ctx, site, cfg.Analysis.Schedule)
		}
	}

	if application.Warmer != nil {
		go application.Warmer.StartPeriodicWarming(ctx, 15*time.Minute)
	}

	router := routes.NewRouter(
		handlers.NewHealthHandler(cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion),
		handlers.NewAnalysisHandler(application.Service),
		handlers.NewUIHandler(application.Service),
		middleware.NewCacheMiddleware(application.Cache),
		cfg.CORS.AllowedOrigins,
		application.Metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// An analysis fetches three APIs, each bounded by CHANNEL_FETCH_TIMEOUT
		WriteTimeout: cfg.Analysis.ChannelFetchTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	log.Info().Msg("Server stopped")
}
