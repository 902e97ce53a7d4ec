package tracklist_test

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"

	"mixchapters/internal/session"
	"mixchapters/internal/testsupport"
	"mixchapters/internal/tracklist"
)

const slugPath = "/tracklist/1a2b3c/sub-zero-project-amf-2025.html"

func newManager(t *testing.T, catalog *testsupport.Catalog, authenticated bool) *session.Manager {
	t.Helper()
	var opts []session.Option
	if authenticated {
		opts = append(opts, session.WithCredentials(session.Credentials{
			Email:    testsupport.CatalogEmail,
			Password: testsupport.CatalogPassword,
		}))
	}
	manager, err := session.NewManager(catalog.URL(), opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return manager
}

func seedPage(catalog *testsupport.Catalog) {
	catalog.SetPage(slugPath, testsupport.TracklistHTML("Sub Zero Project @ AMF 2025",
		testsupport.Track{Name: "Intro", Cue: 0},
		testsupport.Track{Name: "The Project", Cue: 225},
	))
}

func TestResolveUsesExportWhenAuthenticated(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	seedPage(catalog)
	catalog.SetExport("1a2b3c", testsupport.ExportOK("Sub Zero Project @ Amsterdam Music Festival",
		"[00:00] Sub Zero Project - Intro", "", "[03:45] Sub Zero Project - The Project"))

	resolver := tracklist.NewResolver(newManager(t, catalog, true))
	content, err := resolver.Resolve(context.Background(), tracklist.Selection{URL: catalog.URL() + slugPath})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if content.Strategy != tracklist.StrategyExport {
		t.Fatalf("strategy = %s, want export", content.Strategy)
	}
	want := []string{"[00:00] Sub Zero Project - Intro", "[03:45] Sub Zero Project - The Project"}
	if !reflect.DeepEqual(content.Lines, want) {
		t.Fatalf("lines = %q", content.Lines)
	}
	if content.CanonicalURL != catalog.URL()+"/tracklist/1a2b3c/" {
		t.Fatalf("canonical url = %q", content.CanonicalURL)
	}
	if content.CanonicalTitle != "Sub Zero Project @ Amsterdam Music Festival" {
		t.Fatalf("title = %q", content.CanonicalTitle)
	}
	if refs := catalog.ExportReferers(); len(refs) != 1 || refs[0] != catalog.URL()+slugPath {
		t.Fatalf("export referers = %v", refs)
	}
}

func TestResolveFallsBackToHTMLOnExportFailure(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	seedPage(catalog)

	resolver := tracklist.NewResolver(newManager(t, catalog, true))
	content, err := resolver.Resolve(context.Background(), tracklist.Selection{URL: catalog.URL() + slugPath})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if content.Strategy != tracklist.StrategyHTML {
		t.Fatalf("strategy = %s, want html", content.Strategy)
	}
	if want := []string{"[0:00] Intro", "[3:45] The Project"}; !reflect.DeepEqual(content.Lines, want) {
		t.Fatalf("lines = %q", content.Lines)
	}
	if len(catalog.ExportReferers()) != 1 {
		t.Fatalf("expected one export attempt, got %d", len(catalog.ExportReferers()))
	}
}

func TestResolveAnonymousSkipsExportAndFollowsRedirect(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	seedPage(catalog)
	catalog.SetRedirect("/tracklist/1a2b3c/", slugPath)

	resolver := tracklist.NewResolver(newManager(t, catalog, false))
	content, err := resolver.Resolve(context.Background(), tracklist.Selection{ID: "1a2b3c", Title: "fallback title"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if content.Strategy != tracklist.StrategyHTML || content.CanonicalTitle != "Sub Zero Project @ AMF 2025" {
		t.Fatalf("content = %+v", content)
	}
	if slices.Contains(catalog.Requests(), "POST "+tracklist.ExportPath) {
		t.Fatalf("anonymous session must not call the export endpoint: %v", catalog.Requests())
	}
	if !slices.Contains(catalog.Requests(), "GET "+slugPath) {
		t.Fatalf("redirect not followed: %v", catalog.Requests())
	}
}

func TestResolveNotFound(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	resolver := tracklist.NewResolver(newManager(t, catalog, false))
	_, err := resolver.Resolve(context.Background(), tracklist.Selection{ID: "zzz999"})
	if !errors.Is(err, tracklist.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
