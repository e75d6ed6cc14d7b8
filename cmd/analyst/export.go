package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sitepulse/analyst/internal/report"
)

func newExportCmd(c *cli) *cobra.Command {
	var format, section, output string

	cmd := &cobra.Command{
		Use:   "export <site|report-id>",
		Short: "Render the latest report of a site",
		Long: `Render the latest stored report as JSON, CSV or an HTML dashboard.

Examples:
  analyst export example.com                          # JSON to stdout
  analyst export example.com -f csv -s queries        # Top queries as CSV
  analyst export example.com -f html -o dashboard.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			s, err := report.ParseSection(section)
			if err != nil {
				return err
			}

			result, err := c.service.LatestReport(commandContext(cmd), args[0])
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := report.Render(&buf, f, result, s); err != nil {
				return err
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, csv or html")
	cmd.Flags().StringVarP(&section, "section", "s", "summary", "CSV section: summary, search, queries, web, devices, social, posts, recommendations")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
