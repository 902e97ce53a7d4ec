package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mixchapters/internal/logging"
	"mixchapters/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var runID, file, level string
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the run log, optionally for one run or file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{RunID: runID, MinLevel: logs.ParseLevel(level)}
			if file != "" {
				abs, err := filepath.Abs(file)
				if err != nil {
					return err
				}
				filter.File = abs
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			out := cmd.OutOrStdout()

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, Filter: filter})
			if err != nil {
				return err
			}
			for _, rec := range result.Records {
				fmt.Fprintln(out, rec.Format())
			}
			if !follow {
				return nil
			}
			offset := result.Offset
			for {
				result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: offset, Follow: true, Wait: 30 * time.Second, Filter: filter})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				if err != nil {
					return err
				}
				for _, rec := range result.Records {
					fmt.Fprintln(out, rec.Format())
				}
				offset = result.Offset
			}
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only show records of this run id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Only show records for this media file")
	cmd.Flags().StringVar(&level, "level", "info", "Minimum level: debug, info, warn or error")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of records to show")
	cmd.Flags().BoolVar(&follow, "follow", false, "Keep printing new records")
	return cmd
}
