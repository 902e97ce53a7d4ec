package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mixchapters/internal/config"
	"mixchapters/internal/ledger"
	"mixchapters/internal/media/mkvtool"
	"mixchapters/internal/metadata"
	"mixchapters/internal/notifications"
	"mixchapters/internal/preflight"
	"mixchapters/internal/query"
	"mixchapters/internal/search"
	"mixchapters/internal/services"
	"mixchapters/internal/tracklist"
	"mixchapters/internal/workflow"
)

type tagOptions struct {
	policy         string
	query          string
	year           string
	fromFile       string
	dryRun         bool
	nonInteractive bool
}

func newTagCommand(ctx *commandContext) *cobra.Command {
	var opts tagOptions

	cmd := &cobra.Command{
		Use:   "tag <file>...",
		Short: "Find tracklists and embed them as chapters",
		Long: "Search the catalog for each file, resolve the chosen tracklist and write its\n" +
			"timestamps as chapters together with a reference tag for later runs.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTag(cmd, ctx, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.policy, "policy", "", "Stored reference policy: auto, confirm or refresh (default from config)")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Search text instead of the file name")
	cmd.Flags().StringVarP(&opts.year, "year", "y", "", "Restrict the search to this year")
	cmd.Flags().StringVar(&opts.fromFile, "from-file", "", "Read \"[time] title\" lines from this file instead of the catalog")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Resolve chapters without writing files or the ledger")
	cmd.Flags().BoolVar(&opts.nonInteractive, "non-interactive", false, "Pick the best candidate without prompting")
	return cmd
}

func validateYearFlag(year string) error {
	if year = strings.TrimSpace(year); year != "" && !query.IsYear(year) {
		return fmt.Errorf("--year %q is not a four-digit 19xx or 20xx year", year)
	}
	return nil
}

func runTag(cmd *cobra.Command, ctx *commandContext, opts tagOptions, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if opts.fromFile != "" && len(args) > 1 {
		return errors.New("--from-file applies to a single media file")
	}
	if opts.query != "" && len(args) > 1 {
		return errors.New("--query applies to a single media file")
	}
	if err := validateYearFlag(opts.year); err != nil {
		return err
	}
	policyValue := cfg.Workflow.Policy
	if strings.TrimSpace(opts.policy) != "" {
		policyValue = opts.policy
	}
	policy, err := metadata.ParsePolicy(policyValue)
	if err != nil {
		return err
	}

	requests := make([]workflow.Request, 0, len(args))
	for _, arg := range args {
		path, err := config.ExpandPath(arg)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", arg, err)
		}
		requests = append(requests, workflow.Request{Path: path, Query: opts.query, Year: opts.year, FromFile: opts.fromFile})
	}

	if err := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, preflight.Options{DryRun: opts.dryRun})); err != nil {
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
	store, err := ctx.ledgerStore()
	if err != nil {
		return err
	}

	timeout := time.Duration(cfg.Media.CommandTimeout) * time.Second
	processor := workflow.NewProcessor(workflow.Dependencies{
		Searcher: search.NewEngine(manager,
			search.WithWeights(cfg.Scoring),
			search.WithAliases(aliases),
			search.WithLogger(logger),
		),
		Resolver:  tracklist.NewResolver(manager, tracklist.WithLogger(logger)),
		Inspector: metadata.NewProber(cfg.Media.FFprobeBinary, timeout),
		Embedder: mkvtool.NewEmbedder(cfg.Media.MkvpropeditBinary,
			mkvtool.WithDryRun(opts.dryRun),
			mkvtool.WithTimeout(timeout),
			mkvtool.WithLogger(logger),
		),
		Selector: newSelector(cmd, cfg, opts.nonInteractive),
	}, workflow.Settings{
		Policy:            policy,
		Language:          cfg.Workflow.Language,
		MaxUntimedRetries: cfg.Workflow.MaxUntimedRetries,
	}, logger)

	runnerOpts := []workflow.RunnerOption{
		workflow.WithDelay(time.Duration(cfg.Workflow.FileDelaySeconds) * time.Second),
		workflow.WithRecorder(store),
		workflow.WithRunnerLogger(logger),
	}
	if opts.dryRun {
		runnerOpts = append(runnerOpts, workflow.WithRecordDisabled())
	} else {
		runnerOpts = append(runnerOpts, workflow.WithNotifier(notifications.NewService(cfg)))
	}
	summary, runErr := workflow.NewRunner(processor, runnerOpts...).Run(cmd.Context(), requests)

	out := cmd.OutOrStdout()
	printTagSummary(out, summary)
	if runErr != nil {
		return runErr
	}
	if n := summary.Counts[ledger.StatusFailed] + summary.Counts[ledger.StatusReview]; n > 0 {
		return fmt.Errorf("%d of %d file(s) failed or need review", n, len(summary.Outcomes))
	}
	return nil
}

// newSelector prompts only when stdin is a terminal.
func newSelector(cmd *cobra.Command, cfg *config.Config, nonInteractive bool) workflow.Selector {
	if !nonInteractive && stdinIsTerminal(cmd.InOrStdin()) {
		return workflow.NewPromptSelector(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return workflow.AutoSelector{MinScore: cfg.Workflow.MinAutoScore}
}

func stdinIsTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printTagSummary(out io.Writer, summary workflow.Summary) {
	if len(summary.Outcomes) == 0 {
		return
	}
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		detail := o.Title
		if o.Err != nil {
			detail = o.Err.Error()
		}
		chapters := ""
		if o.Chapters > 0 {
			chapters = strconv.Itoa(o.Chapters)
		}
		rows = append(rows, []string{filepath.Base(o.File), string(o.Status), chapters, o.Strategy, detail})
	}
	fmt.Fprintln(out, renderTable([]column{
		{header: "File", maxWidth: 40},
		{header: "Status"},
		{header: "Chapters", right: true},
		{header: "Source"},
		{header: "Detail", maxWidth: 60},
	}, rows))
	fmt.Fprintf(out, "Run %s\n", summary.RunID)
	hints := make(map[string]bool)
	for _, o := range summary.Outcomes {
		if o.Err == nil {
			continue
		}
		if hint := services.Hint(o.Err); !hints[hint] {
			hints[hint] = true
			fmt.Fprintf(out, "Hint: %s\n", hint)
		}
	}
}
