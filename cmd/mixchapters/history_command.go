package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mixchapters/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var statusFlag, fileFlag, runFlag string
	var limit int
	var showErrors bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded per-file outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ledger.Filter{RunID: runFlag, Limit: limit}
			if statusFlag != "" {
				status, ok := ledger.ParseStatus(statusFlag)
				if !ok {
					return fmt.Errorf("unknown status %q", statusFlag)
				}
				filter.Status = status
			}
			if fileFlag != "" {
				abs, err := filepath.Abs(fileFlag)
				if err != nil {
					return err
				}
				filter.File = abs
			}
			store, err := ctx.ledgerStore()
			if err != nil {
				return err
			}
			entries, err := store.Recent(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No outcomes recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistory(entries, showErrors))
			return nil
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Only show this status (embedded, unchanged, skipped, review, failed)")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Only show outcomes for this media file")
	cmd.Flags().StringVar(&runFlag, "run", "", "Only show outcomes of this run id")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum rows (default 20)")
	cmd.Flags().BoolVar(&showErrors, "errors", false, "Show the full error instead of the title")
	return cmd
}

func renderHistory(entries []ledger.Entry, showErrors bool) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := e.Title
		if showErrors && e.Error != "" {
			detail = e.Error
		}
		chapters := ""
		if e.Chapters > 0 {
			chapters = strconv.Itoa(e.Chapters)
		}
		rows = append(rows, []string{
			e.RecordedAt.Local().Format(time.DateTime),
			string(e.Status),
			filepath.Base(e.File),
			chapters,
			detail,
		})
	}
	return renderTable([]column{
		{header: "Recorded"},
		{header: "Status"},
		{header: "File", maxWidth: 40},
		{header: "Chapters", right: true},
		{header: "Detail", maxWidth: 60},
	}, rows)
}
