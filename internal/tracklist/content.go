package tracklist

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrExportFailed indicates the export endpoint reported failure.
	ErrExportFailed = errors.New("tracklist export failed")
	// ErrNoTracks indicates the page carried no recognizable track entries.
	ErrNoTracks = errors.New("no tracks found on tracklist page")
	// ErrNotFound indicates the catalog has no page for the selection.
	ErrNotFound = errors.New("tracklist not found")
)

// Strategy names the source that produced a Content.
type Strategy string

const (
	StrategyExport Strategy = "export"
	StrategyHTML   Strategy = "html"
)

// Selection identifies the tracklist to resolve. ID may be empty when URL
// carries it.
type Selection struct {
	ID    string
	URL   string
	Title string
}

// Content is a resolved tracklist.
type Content struct {
	CanonicalURL   string
	CanonicalTitle string
	Lines          []string
	Strategy       Strategy
}

// Page is a fetched tracklist page shared by the sources. URL is the final
// address after redirects.
type Page struct {
	ID   string
	URL  string
	Body []byte
}

// Source produces tracklist content for a fetched page.
type Source interface {
	Strategy() Strategy
	Fetch(ctx context.Context, page Page) (Content, error)
}

var idPattern = regexp.MustCompile(`/tracklist/([a-z0-9]+)(?:/|$)`)

// IDFromURL extracts the catalog id from a tracklist URL or path.
func IDFromURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	m := idPattern.FindStringSubmatch(parsed.Path)
	if m == nil {
		return ""
	}
	return m[1]
}

// CanonicalURL builds the slug-free tracklist address for id.
func CanonicalURL(base *url.URL, id string) string {
	return base.ResolveReference(&url.URL{Path: "/tracklist/" + id + "/"}).String()
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
