package tracklist

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"mixchapters/internal/testsupport"
)

func TestHTMLSourcePairsCuesAndDropsTogether(t *testing.T) {
	body := testsupport.TracklistHTML("Sub Zero Project @ AMF 2025",
		testsupport.Track{Name: "Sub Zero Project - Intro", Cue: 0},
		testsupport.Track{Name: "Sub Zero Project - The Project", Cue: 225},
		testsupport.Track{Name: "Mashup Acapella", Cue: 300, Together: true},
		testsupport.Track{Name: "", Cue: 3725},
		testsupport.Track{Name: "", Cue: -1},
		testsupport.Track{Name: "Sub Zero Project - Outro", Cue: -1},
	)
	content, err := NewHTMLSource().Fetch(context.Background(), Page{ID: "x", URL: "https://catalog.test/tracklist/x/", Body: []byte(body)})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []string{
		"[0:00] Sub Zero Project - Intro",
		"[3:45] Sub Zero Project - The Project",
		"[1:02:05] ID",
		"1. Sub Zero Project - Outro",
	}
	if !reflect.DeepEqual(content.Lines, want) {
		t.Fatalf("lines = %q\nwant    %q", content.Lines, want)
	}
	if content.CanonicalTitle != "Sub Zero Project @ AMF 2025" || content.Strategy != StrategyHTML {
		t.Fatalf("content = %+v", content)
	}
}

func TestHTMLSourceLooseFallbackAndTitleFallback(t *testing.T) {
	body := `<html><head><title>Armin van Buuren @ ASOT 1200 | 1001Tracklists</title></head><body>
<div itemprop="tracks"><meta itemprop="name" content="Armin van Buuren - Blah Blah Blah"><span class="t">0:00</span></div>
<div itemprop="tracks"><span itemprop="name">Ferry Corsten - Punk</span> <span>starts 1:03:15</span></div>
<div itemprop="tracks"><span itemprop="name">Unreleased</span></div>
<div itemprop="tracks"><span class="empty"></span></div>
</body></html>`
	content, err := NewHTMLSource().Fetch(context.Background(), Page{Body: []byte(body)})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []string{
		"[0:00] Armin van Buuren - Blah Blah Blah",
		"[1:03:15] Ferry Corsten - Punk",
		"1. Unreleased",
	}
	if !reflect.DeepEqual(content.Lines, want) {
		t.Fatalf("lines = %q, want %q", content.Lines, want)
	}
	if content.CanonicalTitle != "Armin van Buuren @ ASOT 1200" {
		t.Fatalf("title = %q", content.CanonicalTitle)
	}
}

func TestHTMLSourceNoTracks(t *testing.T) {
	_, err := NewHTMLSource().Fetch(context.Background(), Page{URL: "u", Body: []byte("<html><body>nothing</body></html>")})
	if !errors.Is(err, ErrNoTracks) {
		t.Fatalf("expected ErrNoTracks, got %v", err)
	}
}

func TestIDFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://catalog.test/tracklist/2k9x7a1/sub-zero-project.html", "2k9x7a1"},
		{"/tracklist/2k9x7a1/", "2k9x7a1"},
		{"/tracklist/2k9x7a1", "2k9x7a1"},
		{"/dj/someone/index.html", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := IDFromURL(tt.in); got != tt.want {
			t.Errorf("IDFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
