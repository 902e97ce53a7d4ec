package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"mixchapters/internal/chapters"
	"mixchapters/internal/ledger"
	"mixchapters/internal/logging"
	"mixchapters/internal/media/mkvtool"
	"mixchapters/internal/metadata"
	"mixchapters/internal/search"
	"mixchapters/internal/services"
	"mixchapters/internal/session"
	"mixchapters/internal/textutil"
	"mixchapters/internal/tracklist"
)

// StrategyFile marks content read from a local timestamp file.
const StrategyFile tracklist.Strategy = "file"

var errSkipped = errors.New("skipped by selector")

// Searcher returns ranked catalog candidates.
type Searcher interface {
	Search(ctx context.Context, text string, refMinutes int, year string) ([]search.Result, error)
}

// Resolver fetches tracklist content.
type Resolver interface {
	Resolve(ctx context.Context, sel tracklist.Selection) (tracklist.Content, error)
}

// Inspector reads a media file's duration, chapters and stored reference.
type Inspector interface {
	Inspect(ctx context.Context, path string) (metadata.Snapshot, error)
}

// Embedder writes chapters and the stored reference into a media file.
type Embedder interface {
	Embed(ctx context.Context, req mkvtool.Request) error
}

// Dependencies are the collaborators of a Processor.
type Dependencies struct {
	Searcher  Searcher
	Resolver  Resolver
	Inspector Inspector
	Embedder  Embedder
	Selector  Selector
}

// Settings tune per-file behaviour.
type Settings struct {
	Policy            metadata.Policy
	Language          string
	MaxUntimedRetries int
}

// Request is one file to process.
type Request struct {
	Path string
	// Query overrides the query derived from the file name.
	Query string
	// Year overrides the year found in the query.
	Year string
	// FromFile reads "[time] title" lines from a local file instead of the catalog.
	FromFile string
}

// Outcome is the result of processing one file.
type Outcome struct {
	File     string
	Status   ledger.Status
	URL      string
	Title    string
	Chapters int
	Strategy string
	Err      error
}

// Processor runs the per-file pipeline.
type Processor struct {
	deps     Dependencies
	settings Settings
	logger   *slog.Logger
}

// NewProcessor builds a Processor.
func NewProcessor(deps Dependencies, settings Settings, logger *slog.Logger) *Processor {
	if deps.Selector == nil {
		deps.Selector = AutoSelector{}
	}
	return &Processor{
		deps:     deps,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "workflow"),
	}
}

// Process takes one file from inspection to embedded chapters. Failures are
// reported in the Outcome, never returned.
func (p *Processor) Process(ctx context.Context, req Request) Outcome {
	out := Outcome{File: req.Path}
	snap, err := p.deps.Inspector.Inspect(services.WithStage(ctx, "inspect"), req.Path)
	if err != nil {
		return p.fail(ctx, out, services.Wrap(services.ErrExternalTool, "inspect", "probe media", req.Path, err))
	}

	var (
		content tracklist.Content
		chs     []chapters.Chapter
	)
	if req.FromFile != "" {
		content, chs, err = p.fromFile(req.FromFile, snap)
	} else {
		content, chs, err = p.acquire(ctx, req, snap)
	}
	if errors.Is(err, errSkipped) {
		out.Status = ledger.StatusSkipped
		logging.WithContext(ctx, p.logger).Info("file skipped",
			logging.Args(logging.DecisionAttrs("selection", "skip", "selector declined")...)...)
		return out
	}
	if err != nil {
		return p.fail(ctx, out, err)
	}
	return p.finish(ctx, out, snap, content, chs)
}

func (p *Processor) fromFile(path string, snap metadata.Snapshot) (tracklist.Content, []chapters.Chapter, error) {
	lines, err := chapters.ReadLines(path)
	if err != nil {
		return tracklist.Content{}, nil, services.Wrap(services.ErrValidation, "resolve", "read timestamp file", path, err)
	}
	chs, err := chapters.Parse(lines, p.settings.Language)
	if err != nil {
		return tracklist.Content{}, nil, services.Wrap(services.ErrValidation, "resolve", "parse timestamp file", path, err)
	}
	content := tracklist.Content{
		CanonicalURL:   snap.Stored.URL,
		CanonicalTitle: snap.Stored.Title,
		Lines:          lines,
		Strategy:       StrategyFile,
	}
	return content, chs, nil
}

// acquire honours the stored reference per policy and otherwise runs the
// selection machine.
func (p *Processor) acquire(ctx context.Context, req Request, snap metadata.Snapshot) (tracklist.Content, []chapters.Chapter, error) {
	logger := logging.WithContext(ctx, p.logger)
	action := metadata.Decide(p.settings.Policy, snap.Stored)
	if action == metadata.ActionConfirm {
		ok, err := p.deps.Selector.ConfirmStored(ctx, req.Path, snap.Stored)
		if err != nil {
			return tracklist.Content{}, nil, services.Wrap(services.ErrConfiguration, "select", "confirm stored reference", "", err)
		}
		action = metadata.ActionSearch
		if ok {
			action = metadata.ActionReuse
		}
	}
	if action == metadata.ActionReuse {
		logger.Info("reusing stored tracklist reference",
			logging.Args(append(logging.DecisionAttrs("stored_reference", "reuse", string(p.settings.Policy)),
				logging.String("url", snap.Stored.URL))...)...)
		sel := tracklist.Selection{URL: snap.Stored.URL, Title: snap.Stored.Title}
		content, chs, err := p.resolve(ctx, sel)
		if !errors.Is(err, chapters.ErrUntimed) {
			return content, chs, err
		}
		logging.WarnWithContext(logger, "stored tracklist has no timestamps; searching", "stored_untimed",
			logging.String("url", snap.Stored.URL),
			logging.String(logging.FieldImpact, "a different tracklist may be chosen"),
		)
	}
	return p.selectAndResolve(ctx, req, snap)
}

func (p *Processor) selectAndResolve(ctx context.Context, req Request, snap metadata.Snapshot) (tracklist.Content, []chapters.Chapter, error) {
	var (
		candidates []search.Result
		tried      = make(map[string]bool)
		selected   search.Result
		content    tracklist.Content
		chs        []chapters.Chapter
		untimed    int
	)
	phase := PhaseSearching
	for {
		phaseCtx := services.WithStage(ctx, phase.String())
		logger := logging.WithContext(phaseCtx, p.logger)
		switch phase {
		case PhaseSearching:
			if candidates == nil {
				results, err := p.search(phaseCtx, req, snap)
				if err != nil {
					return tracklist.Content{}, nil, err
				}
				candidates = results
			}
			phase = PhaseSelecting

		case PhaseSelecting:
			remaining := untried(candidates, tried)
			if len(remaining) == 0 {
				return tracklist.Content{}, nil, services.Wrap(services.ErrNotFound, "select", "choose tracklist", "every candidate has been tried", nil)
			}
			choice, err := p.deps.Selector.Choose(phaseCtx, req.Path, remaining)
			if err != nil {
				return tracklist.Content{}, nil, services.Wrap(services.ErrConfiguration, "select", "choose tracklist", "", err)
			}
			switch choice.Kind {
			case ChoiceSkip:
				return tracklist.Content{}, nil, errSkipped
			case ChoiceRefuse:
				return tracklist.Content{}, nil, services.Wrap(services.ErrNotFound, "select", "choose tracklist", "no candidate accepted", nil)
			}
			selected = choice.Result
			tried[selected.ID] = true
			logger.Info("tracklist selected",
				logging.Args(append(logging.DecisionAttrs("selection", selected.ID, selected.Breakdown()),
					logging.String("title", selected.Title),
					logging.Float64("score", selected.Score))...)...)
			phase = PhaseResolving

		case PhaseResolving:
			var err error
			content, chs, err = p.resolve(phaseCtx, tracklist.Selection{ID: selected.ID, URL: selected.URL, Title: selected.Title})
			switch {
			case err == nil:
				phase = PhaseResolved
			case errors.Is(err, chapters.ErrUntimed):
				phase = PhaseUntimed
			default:
				return tracklist.Content{}, nil, err
			}

		case PhaseUntimed:
			untimed++
			if untimed > p.settings.MaxUntimedRetries {
				return tracklist.Content{}, nil, services.Wrap(services.ErrValidation, "resolve", "normalize chapters",
					"selected tracklists have no timestamps yet", chapters.ErrUntimed)
			}
			logging.WarnWithContext(logger, "tracklist has no timestamps yet; choosing again", "tracklist_untimed",
				logging.String("id", selected.ID),
				logging.Int("attempt", untimed),
				logging.Int("max_retries", p.settings.MaxUntimedRetries),
				logging.String(logging.FieldImpact, "another candidate is offered"),
			)
			phase = PhaseSearching

		case PhaseResolved:
			return content, chs, nil
		}
	}
}

func (p *Processor) search(ctx context.Context, req Request, snap metadata.Snapshot) ([]search.Result, error) {
	text := strings.TrimSpace(req.Query)
	if text == "" {
		text = textutil.QueryFromFileName(req.Path)
	}
	ref := 0
	if snap.DurationKnown {
		ref = snap.DurationMinutes
	}
	results, err := p.deps.Searcher.Search(ctx, text, ref, req.Year)
	switch {
	case err == nil && len(results) == 0:
		return nil, services.Wrap(services.ErrTransient, "search", "search catalog", "catalog rate limited the search", nil)
	case err == nil:
		return results, nil
	case errors.Is(err, search.ErrNoResults):
		return nil, services.Wrap(services.ErrNotFound, "search", "search catalog", text, err)
	case errors.Is(err, session.ErrAuthentication):
		return nil, services.Wrap(services.ErrConfiguration, "search", "log in", "check catalog credentials", err)
	default:
		return nil, services.Wrap(services.ErrTransient, "search", "search catalog", text, err)
	}
}

// resolve fetches and normalizes a tracklist. chapters.ErrUntimed is
// returned unwrapped so callers can branch on it.
func (p *Processor) resolve(ctx context.Context, sel tracklist.Selection) (tracklist.Content, []chapters.Chapter, error) {
	content, err := p.deps.Resolver.Resolve(ctx, sel)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrAuthentication):
			return tracklist.Content{}, nil, services.Wrap(services.ErrConfiguration, "resolve", "log in", "check catalog credentials", err)
		case errors.Is(err, tracklist.ErrNotFound), errors.Is(err, tracklist.ErrNoTracks):
			return tracklist.Content{}, nil, services.Wrap(services.ErrNotFound, "resolve", "fetch tracklist", sel.URL, err)
		default:
			return tracklist.Content{}, nil, services.Wrap(services.ErrTransient, "resolve", "fetch tracklist", sel.URL, err)
		}
	}
	chs, err := chapters.Parse(content.Lines, p.settings.Language)
	if errors.Is(err, chapters.ErrUntimed) {
		return content, nil, err
	}
	if err != nil {
		return tracklist.Content{}, nil, services.Wrap(services.ErrValidation, "resolve", "normalize chapters", content.CanonicalURL, err)
	}
	return content, chs, nil
}

func (p *Processor) finish(ctx context.Context, out Outcome, snap metadata.Snapshot, content tracklist.Content, chs []chapters.Chapter) Outcome {
	logger := logging.WithContext(services.WithStage(ctx, "embed"), p.logger)
	out.URL = content.CanonicalURL
	out.Title = content.CanonicalTitle
	out.Chapters = len(chs)
	out.Strategy = string(content.Strategy)

	stored := metadata.Stored{URL: content.CanonicalURL, Title: content.CanonicalTitle}
	if chapters.Identical(snap.Chapters, chs) && stored == snap.Stored {
		out.Status = ledger.StatusUnchanged
		logger.Info("chapters already up to date", logging.Int("chapters", len(chs)))
		return out
	}
	req := mkvtool.Request{Path: snap.Path, Chapters: chs, Stored: stored, Preserve: snap.Tags}
	if req.Path == "" {
		req.Path = out.File
	}
	if err := p.deps.Embedder.Embed(ctx, req); err != nil {
		return p.fail(ctx, out, services.Wrap(services.ErrExternalTool, "embed", "write chapters", out.File, err))
	}
	out.Status = ledger.StatusEmbedded
	logger.Info("chapters embedded",
		logging.Int("chapters", len(chs)),
		logging.String("url", out.URL),
		logging.String("strategy", out.Strategy),
	)
	return out
}

func (p *Processor) fail(ctx context.Context, out Outcome, err error) Outcome {
	out.Status = services.FailureStatus(err)
	out.Err = err
	logging.ErrorWithContext(logging.WithContext(ctx, p.logger), "file failed", "file_failed",
		logging.Error(err),
		logging.String("status", string(out.Status)),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
	)
	return out
}

func untried(candidates []search.Result, tried map[string]bool) []search.Result {
	out := make([]search.Result, 0, len(candidates))
	for _, c := range candidates {
		if !tried[c.ID] {
			out = append(out, c)
		}
	}
	return out
}
