package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/assistant"
	"github.com/WessleyAI/wessley-sales/pkg/vehiclenlp"
	"github.com/spf13/cobra"
)

func newSearchCmd(c *cli) *cobra.Command {
	var (
		topK    int
		asJSON  bool
		showFil bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank catalog vehicles for a free-text query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			prefs := vehiclenlp.ParsePreferences(strings.Join(args, " "))
			if showFil {
				fmt.Fprintf(c.out, "filtros: %+v\n", prefs.Filters)
			}
			results, err := a.Search.Search(cmd.Context(), prefs, topK)
			if err != nil {
				return err
			}
			if asJSON {
				b, _ := json.MarshalIndent(results, "", "  ")
				fmt.Fprintln(c.out, string(b))
				return nil
			}
			if len(results) == 0 {
				fmt.Fprintln(c.out, "sin resultados")
				return nil
			}
			fmt.Fprintln(c.out, assistant.FormatResults(results))
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 3, "Number of results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&showFil, "filters", false, "Print the filters read from the query")
	return cmd
}
