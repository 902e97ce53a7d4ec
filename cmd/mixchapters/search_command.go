package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mixchapters/internal/query"
	"mixchapters/internal/search"
	"mixchapters/internal/workflow"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var duration int
	var year string
	var explain bool

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search the catalog and show ranked candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.loggerValue()
			if err != nil {
				return err
			}
			manager, err := ctx.sessionManager(cmd.Context())
			if err != nil {
				return err
			}
			aliases, err := cfg.LoadAliases()
			if err != nil {
				return err
			}
			engine := search.NewEngine(manager,
				search.WithWeights(cfg.Scoring),
				search.WithAliases(aliases),
				search.WithLogger(logger),
			)

			if err := validateYearFlag(year); err != nil {
				return err
			}
			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			if explain {
				printFacets(out, engine.Facets(text))
			}
			results, err := engine.Search(cmd.Context(), text, duration, year)
			if errors.Is(err, search.ErrNoResults) {
				fmt.Fprintln(out, "No matching tracklists")
				return nil
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return errors.New("catalog rate limited the search; try again later")
			}
			fmt.Fprintln(out, workflow.RenderCandidates(results))
			if explain {
				for _, r := range results {
					fmt.Fprintf(out, "%d. %s  %s\n", r.Index, r.URL, r.Breakdown())
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&duration, "duration", "d", 0, "Reference duration in minutes")
	cmd.Flags().StringVarP(&year, "year", "y", "", "Restrict results to this year")
	cmd.Flags().BoolVar(&explain, "explain", false, "Show query facets, URLs and score breakdowns")
	return cmd
}

func printFacets(out io.Writer, f query.Facets) {
	events := make([]string, 0, len(f.EventPatterns))
	for _, p := range f.EventPatterns {
		events = append(events, fmt.Sprintf("%s %s", p.Kind, p.Number))
	}
	aliases := make([]string, 0, len(f.Aliases))
	for _, a := range f.Aliases {
		aliases = append(aliases, a.Alias+"="+a.Target)
	}
	fmt.Fprintln(out, renderPairs([][2]string{
		{"Keywords", strings.Join(f.Keywords, ", ")},
		{"Year", f.Year},
		{"Abbreviations", strings.Join(f.Abbreviations, ", ")},
		{"Events", strings.Join(events, ", ")},
		{"Aliases", strings.Join(aliases, ", ")},
	}))
}
