package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sitepulse/analyst/internal/application/services"
	"github.com/sitepulse/analyst/internal/domain/entities"
	"github.com/sitepulse/analyst/pkg/config"
)

type runOptions struct {
	days       int
	channels   []string
	startDate  string
	endDate    string
	schedule   string
	watch      bool
	jsonOutput bool
}

func newRunCmd(c *cli) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [site]",
		Short: "Run an analysis and store the report",
		Long: `Fetch the selected channels, score them, compare with the previous report
and store the result. The site defaults to ANALYSIS_SITE_URL.

Examples:
  analyst run example.com                      # Last 30 days, all channels
  analyst run example.com -c search -c web     # Only Search Console and GA4
  analyst run example.com --start 2026-01-01 --end 2026-01-31
  analyst run --schedule daily --watch         # Keep running once a day`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site := ""
			if len(args) == 1 {
				site = args[0]
			}
			return c.run(cmd, site, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.days, "days", "d", 0, "analysis period in days (default ANALYSIS_DEFAULT_DAYS)")
	cmd.Flags().StringSliceVarP(&opts.channels, "channels", "c", nil, "channels to fetch: search, web, social")
	cmd.Flags().StringVar(&opts.startDate, "start", "", "period start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.endDate, "end", "", "period end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.schedule, "schedule", "", "use the period of a schedule: daily, weekly or monthly")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "keep running on the schedule until interrupted")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "output the report as JSON")
	return cmd
}

func (c *cli) run(cmd *cobra.Command, site string, opts *runOptions) error {
	ctx := commandContext(cmd)

	if site == "" {
		site = c.cfg.Analysis.DefaultSite
	}

	if opts.watch {
		schedule := opts.schedule
		if schedule == "" {
			schedule = c.cfg.Analysis.Schedule
		}
		if site == "" {
			return fmt.Errorf("a site is required for --watch")
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		c.service.StartPeriodicAnalysis(ctx, site, schedule)
		fmt.Fprintf(cmd.OutOrStdout(), "Running %s analysis of %s, press Ctrl+C to stop\n", schedule, site)
		<-ctx.Done()
		return nil
	}

	req := services.AnalyzeRequest{
		SiteURL:   site,
		Days:      opts.days,
		StartDate: opts.startDate,
		EndDate:   opts.endDate,
	}
	if opts.schedule != "" {
		req.Days = config.ScheduleDays(opts.schedule)
	}
	for _, name := range opts.channels {
		channel, err := entities.ParseChannel(name)
		if err != nil {
			return err
		}
		req.Channels = append(req.Channels, channel)
	}

	result, err := c.service.Analyze(ctx, req)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printReport(cmd.OutOrStdout(), result)
	return nil
}

func printReport(w io.Writer, r *entities.Report) {
	fmt.Fprintf(w, "Report %s for %s (%d days)\n\n", r.ReportID, entities.SiteKey(r.SiteURL), r.AnalysisPeriodDays)
	fmt.Fprintln(w, r.Summary)

	if r.Trends != nil {
		if r.Trends.Sufficient() {
			fmt.Fprintf(w, "Overall score change: %+.1f pts (%s)\n\n", r.Trends.Trends.Overall.ScoreChange, r.Trends.Trends.Overall.Direction)
		} else if r.Trends.Message != "" {
			fmt.Fprintf(w, "%s\n\n", r.Trends.Message)
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for i, rec := range r.Recommendations {
			fmt.Fprintf(w, "%d. [%s] %s - %s\n", i+1, rec.Priority, rec.Title, rec.Description)
		}
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
