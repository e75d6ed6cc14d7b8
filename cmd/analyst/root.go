package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sitepulse/analyst/internal/app"
	"github.com/sitepulse/analyst/internal/application/services"
	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/internal/infrastructure/observability"
	"github.com/sitepulse/analyst/pkg/config"
)

// analystService is the part of the analysis service the CLI uses
type analystService interface {
	Analyze(ctx context.Context, req services.AnalyzeRequest) (*entities.Report, error)
	LatestReport(ctx context.Context, siteOrID string) (*entities.Report, error)
	Trends(ctx context.Context, site string) (entities.TrendReport, int, error)
	ListSites(ctx context.Context) ([]string, error)
	StartPeriodicAnalysis(ctx context.Context, site, schedule string)
}

// serviceFactory builds the service for one command run and returns a
// cleanup func.
type serviceFactory func(ctx context.Context, cfg *config.Config) (analystService, func(), error)

func defaultServiceFactory(ctx context.Context, cfg *config.Config) (analystService, func(), error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a.Service, a.Close, nil
}

// cli carries the state shared by all commands of one invocation
type cli struct {
	factory serviceFactory
	verbose bool

	cfg     *config.Config
	service analystService
	cleanup func()
}

func newRootCmd(factory serviceFactory) *cobra.Command {
	c := &cli{factory: factory}

	root := &cobra.Command{
		Use:   "analyst",
		Short: "Marketing analytics trend and scoring CLI",
		Long: `analyst scores a site's Search Console, GA4 and Meta data, tracks the
score history and suggests what to improve next.

Example usage:
  analyst run example.com --days 7     # Analyze the last 7 days
  analyst run --schedule weekly        # Analyze the configured site over a week
  analyst trends example.com           # Compare the two latest reports
  analyst export example.com -f html   # Render the latest report as HTML
  analyst sites                        # List sites with stored history`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.cleanup != nil {
				c.cleanup()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newRunCmd(c),
		newTrendsCmd(c),
		newExportCmd(c),
		newSitesCmd(c),
	)
	return root
}

func (c *cli) init(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg

	observability.InitLoggerTo(os.Stderr, cfg.OTEL.ServiceName, cfg.Environment)
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if c.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("history_backend", cfg.History.Backend).Msg("Configuration loaded")

	if ctx == nil {
		ctx = context.Background()
	}
	service, cleanup, err := c.factory(ctx, cfg)
	if err != nil {
		return err
	}
	c.service, c.cleanup = service, cleanup
	return nil
}
