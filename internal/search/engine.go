package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mixchapters/internal/config"
	"mixchapters/internal/logging"
	"mixchapters/internal/query"
	"mixchapters/internal/session"
)

// ResultPath is the catalog's search endpoint.
const ResultPath = "/search/result.php"

// Engine runs catalog searches through a session manager.
type Engine struct {
	manager *session.Manager
	weights config.Scoring
	aliases map[string]string
	logger  *slog.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithWeights overrides the default scoring weights.
func WithWeights(w config.Scoring) Option {
	return func(e *Engine) { e.weights = w }
}

// WithAliases sets the alias table consulted by the query analyzer.
func WithAliases(aliases map[string]string) Option {
	return func(e *Engine) { e.aliases = aliases }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine builds an Engine. The manager is shared with the resolver.
func NewEngine(manager *session.Manager, opts ...Option) *Engine {
	e := &Engine{manager: manager, weights: config.DefaultScoring()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "search")
	return e
}

// Facets returns the analyzer's view of text using the engine's alias table.
func (e *Engine) Facets(text string) query.Facets {
	return query.Analyze(text, e.aliases)
}

// Search queries the catalog and returns ranked candidates. refMinutes <= 0
// disables duration filtering and scoring; a non-empty year overrides the
// year found in text. An override that is not a 19xx/20xx year is ignored.
func (e *Engine) Search(ctx context.Context, text string, refMinutes int, year string) ([]Result, error) {
	if e.manager == nil {
		return nil, errors.New("search engine has no session manager")
	}
	text = strings.TrimSpace(query.StripPlatformID(text))
	facets := query.Analyze(text, e.aliases)
	if facets.Empty() {
		return nil, fmt.Errorf("%w: query %q carries nothing to search for", ErrNoResults, text)
	}
	logger := logging.WithContext(ctx, e.logger)
	switch year = strings.TrimSpace(year); {
	case year == "":
	case query.IsYear(year):
		facets.Year = year
	default:
		logging.WarnWithContext(logger, "year override ignored", "search_year_invalid",
			logging.String("year", year),
			logging.String("query_year", facets.Year),
			logging.String(logging.FieldErrorHint, "pass a four-digit 19xx or 20xx year"),
		)
	}

	if err := e.manager.Ensure(ctx); err != nil {
		if errors.Is(err, session.ErrRateLimited) {
			logRateLimited(logger, text)
			return nil, nil
		}
		return nil, err
	}

	resp, err := e.manager.Get(ctx, ResultPath+"?"+searchParams(text, refMinutes, facets.Year).Encode())
	if err != nil {
		if errors.Is(err, session.ErrRateLimited) {
			logRateLimited(logger, text)
			return nil, nil
		}
		return nil, fmt.Errorf("search %q: %w", text, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: unexpected status %d", text, resp.StatusCode)
	}

	candidates, err := parseResults(resp.Body, e.manager.Resolve)
	if err != nil {
		return nil, err
	}
	ranked := Rank(candidates, facets, refMinutes, e.weights)
	for _, r := range ranked {
		logger.Debug("candidate scored",
			logging.Int("index", r.Index),
			logging.String("id", r.ID),
			logging.String("title", r.Title),
			logging.Float64("score", r.Score),
			logging.String("reasons", r.Breakdown()),
		)
	}
	logger.Info("candidates ranked",
		logging.Int("count", len(ranked)),
		logging.Int("parsed", len(candidates)),
		logging.String("query", text),
	)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoResults, text)
	}
	return ranked, nil
}

func searchParams(text string, refMinutes int, year string) url.Values {
	params := url.Values{}
	params.Set("main_search", text)
	if refMinutes > 0 {
		params.Set("duration_from", strconv.Itoa(max(1, refMinutes-3)))
	}
	if year != "" {
		params.Set("date_from", year+"-01-01")
		params.Set("date_to", year+"-12-31")
	}
	return params
}

func logRateLimited(logger *slog.Logger, text string) {
	logging.WarnWithContext(logger, "search rate limited; returning no candidates", "search_rate_limited",
		logging.String("query", text),
		logging.String(logging.FieldImpact, "this file gets no automatic match"),
		logging.String(logging.FieldErrorHint, "wait before retrying; the next request logs in again"),
	)
}
