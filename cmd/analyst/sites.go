package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSitesCmd(c *cli) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "sites",
		Aliases: []string{"ls"},
		Short:   "List sites with stored history",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := c.service.ListSites(commandContext(cmd))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				return json.NewEncoder(w).Encode(map[string]interface{}{
					"sites": sites,
					"count": len(sites),
				})
			}
			if len(sites) == 0 {
				fmt.Fprintln(w, "No sites with stored history")
				return nil
			}
			for _, site := range sites {
				fmt.Fprintln(w, site)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
