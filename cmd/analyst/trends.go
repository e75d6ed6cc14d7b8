package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

func newTrendsCmd(c *cli) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "trends <site>",
		Short: "Compare the two latest reports of a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trends, count, err := c.service.Trends(commandContext(cmd), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"success":       trends.Sufficient(),
					"data":          trends.Trends,
					"message":       trends.Message,
					"history_count": count,
				})
			}

			fmt.Fprintf(w, "%s: %d stored reports\n", entities.SiteKey(args[0]), count)
			if !trends.Sufficient() {
				fmt.Fprintln(w, trends.Message)
				return nil
			}
			printTrends(w, trends.Trends)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func printTrends(w io.Writer, t *entities.TrendSet) {
	fmt.Fprintf(w, "Overall score: %+.1f pts (%s)\n", t.Overall.ScoreChange, t.Overall.Direction)
	if s := t.Search; s != nil {
		fmt.Fprintf(w, "Search clicks: %.0f -> %.0f (%+.1f%%, %s), position %+.1f\n",
			s.Previous, s.Current, s.ChangePct, s.Direction, s.PositionChange)
	}
	if web := t.Web; web != nil {
		fmt.Fprintf(w, "Web sessions: %.0f -> %.0f (%+.1f%%, %s), bounce rate %+.3f\n",
			web.Sessions.Previous, web.Sessions.Current, web.Sessions.ChangePct, web.Sessions.Direction, web.BounceRateChange)
	}
	if social := t.Social; social != nil {
		fmt.Fprintf(w, "Social impressions: %.0f -> %.0f (%+.1f%%, %s)\n",
			social.Impressions.Previous, social.Impressions.Current, social.Impressions.ChangePct, social.Impressions.Direction)
	}
}
