package tracklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"mixchapters/internal/logging"
	"mixchapters/internal/session"
)

// Resolver fetches tracklist content through the shared session manager.
type Resolver struct {
	manager *session.Manager
	export  Source
	html    Source
	logger  *slog.Logger
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// WithSources replaces the export and HTML sources. A nil export source
// disables the export strategy.
func WithSources(export, html Source) ResolverOption {
	return func(r *Resolver) {
		r.export = export
		if html != nil {
			r.html = html
		}
	}
}

// NewResolver builds a Resolver with the default sources.
func NewResolver(manager *session.Manager, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		manager: manager,
		export:  NewExportSource(manager),
		html:    NewHTMLSource(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "tracklist")
	return r
}

// Resolve fetches the selected tracklist. The export strategy is used when
// the session is authenticated; an export failure moves to the HTML source.
func (r *Resolver) Resolve(ctx context.Context, sel Selection) (Content, error) {
	if r.manager == nil {
		return Content{}, errors.New("tracklist resolver has no session manager")
	}
	logger := logging.WithContext(ctx, r.logger)

	ref := strings.TrimSpace(sel.URL)
	if ref == "" {
		if sel.ID == "" {
			return Content{}, errors.New("tracklist selection has neither id nor url")
		}
		ref = "/tracklist/" + sel.ID + "/"
	}
	if err := r.manager.Ensure(ctx); err != nil {
		return Content{}, err
	}
	resp, err := r.manager.Get(ctx, ref)
	if err != nil {
		return Content{}, fmt.Errorf("fetch tracklist page: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Content{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case resp.StatusCode != http.StatusOK:
		return Content{}, fmt.Errorf("fetch tracklist page %s: status %d", ref, resp.StatusCode)
	}

	page := Page{ID: sel.ID, URL: resp.URL.String(), Body: resp.Body}
	if page.ID == "" {
		page.ID = IDFromURL(page.URL)
	}
	if page.ID == "" {
		page.ID = IDFromURL(ref)
	}
	if page.ID == "" {
		return Content{}, fmt.Errorf("%w: no tracklist id in %s", ErrNotFound, page.URL)
	}

	content, err := r.fetch(ctx, logger, page)
	if err != nil {
		return Content{}, err
	}
	content.CanonicalURL = CanonicalURL(r.manager.BaseURL(), page.ID)
	if content.CanonicalTitle == "" {
		content.CanonicalTitle = strings.TrimSpace(sel.Title)
	}
	logger.Info("tracklist resolved",
		logging.String("url", content.CanonicalURL),
		logging.String("title", content.CanonicalTitle),
		logging.String("strategy", string(content.Strategy)),
		logging.Int("lines", len(content.Lines)),
	)
	return content, nil
}

func (r *Resolver) fetch(ctx context.Context, logger *slog.Logger, page Page) (Content, error) {
	if r.export != nil && r.manager.Authenticated() {
		content, err := r.export.Fetch(ctx, page)
		switch {
		case err == nil:
			return content, nil
		case errors.Is(err, session.ErrRateLimited), errors.Is(err, session.ErrSessionInactive):
			return Content{}, err
		}
		logger.Info("export unavailable; parsing tracklist page",
			logging.Args(append(logging.DecisionAttrs("tracklist_strategy", string(StrategyHTML), err.Error()),
				logging.String("id", page.ID))...)...)
	}
	return r.html.Fetch(ctx, page)
}
