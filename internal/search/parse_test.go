package search

import (
	"net/url"
	"testing"

	"mixchapters/internal/testsupport"
)

func TestParseResultsDropsDuplicatesAndPagination(t *testing.T) {
	base, _ := url.Parse("https://catalog.test")
	resolve := func(ref string) (*url.URL, error) {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, err
		}
		return base.ResolveReference(u), nil
	}
	body := testsupport.SearchResultHTML(
		testsupport.SearchItem{Href: "/tracklist/2k9x7a1/sub-zero-project-amf-2025.html", Title: "Sub Zero Project @ AMF", Duration: "1h 30m", Date: "2025-10-25"},
		testsupport.SearchItem{Href: "/tracklist/2k9x7a1/sub-zero-project-amf-2025.html", Title: "Sub Zero Project @ AMF (duplicate)"},
		testsupport.SearchItem{Href: "/tracklist/zz/next.html", Title: "Next"},
		testsupport.SearchItem{Href: "/dj/subzeroproject/index.html", Title: "Sub Zero Project"},
		testsupport.SearchItem{Href: "/tracklist/ab12cd/blank.html", Title: "   "},
		testsupport.SearchItem{Href: "/tracklist/q7w8e9/sub-zero-project-qlimax.html", Title: "Sub Zero Project @ Qlimax"},
	)

	results, err := parseResults([]byte(body), resolve)
	if err != nil {
		t.Fatalf("parseResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
	first := results[0]
	if first.ID != "2k9x7a1" || first.URL != "https://catalog.test/tracklist/2k9x7a1/sub-zero-project-amf-2025.html" {
		t.Fatalf("first = %+v", first)
	}
	if !first.DurationKnown || first.DurationMinutes != 90 || first.Date != "2025-10-25" {
		t.Fatalf("first duration/date = %+v", first)
	}
	if results[1].ID != "q7w8e9" || results[1].DurationKnown {
		t.Fatalf("second = %+v", results[1])
	}
	if results[1].DurationLabel() != "?" || first.DurationLabel() != "1h 30m" {
		t.Fatalf("labels = %q %q", first.DurationLabel(), results[1].DurationLabel())
	}
}
