package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mixchapters/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, directories, catalog and session store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{})
			if !offline {
				results = append(results,
					preflight.CheckCatalog(cmd.Context(), cfg.Catalog.BaseURL, cfg.Catalog.UserAgent),
					preflight.CheckSessionStore(cmd.Context(), cfg),
				)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, passLabel(r.Passed), r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{header: "Check"},
				{header: "Status"},
				{header: "Detail", maxWidth: 70},
			}, rows))
			return preflight.Failed(results)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the catalog and session store checks")
	return cmd
}

func passLabel(passed bool) string {
	if passed {
		return "ok"
	}
	return "FAIL"
}
