package metadata

import (
	"testing"

	"mixchapters/internal/chapters"
	"mixchapters/internal/media/ffprobe"
)

func TestDecide(t *testing.T) {
	stored := Stored{URL: "https://catalog.test/tracklist/1a2b3c/", Title: "Set"}
	tests := []struct {
		name   string
		policy Policy
		stored Stored
		want   Action
	}{
		{"nothing stored", PolicyAuto, Stored{}, ActionSearch},
		{"auto", PolicyAuto, stored, ActionReuse},
		{"confirm", PolicyConfirm, stored, ActionConfirm},
		{"refresh", PolicyRefresh, stored, ActionSearch},
		{"blank url", PolicyAuto, Stored{URL: "  ", Title: "x"}, ActionSearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.policy, tt.stored); got != tt.want {
				t.Fatalf("Decide = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(" Refresh "); err != nil || p != PolicyRefresh {
		t.Fatalf("ParsePolicy = %q, %v", p, err)
	}
	if _, err := ParsePolicy("sometimes"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestFromProbe(t *testing.T) {
	result := ffprobe.Result{
		Chapters: []ffprobe.Chapter{
			{ID: 1, StartTime: "0.000000", Tags: map[string]string{"title": "Intro"}},
			{ID: 2, StartTime: "5.000000", Tags: map[string]string{"title": "Next"}},
		},
		Format: ffprobe.Format{
			Duration: "3240.0",
			Tags: map[string]string{
				"tracklist_url":   "https://catalog.test/tracklist/1a2b3c/",
				"TRACKLIST_TITLE": "Set",
				"ARTIST":          "Sub Zero Project",
				"encoder":         "libebml",
			},
		},
	}
	snap, err := FromProbe("set.mka", result)
	if err != nil {
		t.Fatalf("FromProbe: %v", err)
	}
	if !snap.DurationKnown || snap.DurationMinutes != 54 {
		t.Fatalf("duration = %d,%v", snap.DurationMinutes, snap.DurationKnown)
	}
	if snap.Stored.URL != "https://catalog.test/tracklist/1a2b3c/" || snap.Stored.Title != "Set" {
		t.Fatalf("stored = %+v", snap.Stored)
	}
	if len(snap.Tags) != 1 || snap.Tags["ARTIST"] != "Sub Zero Project" {
		t.Fatalf("tags = %v", snap.Tags)
	}
	next := []chapters.Chapter{{Timestamp: "00:00:00.000", Title: "Intro"}, {Timestamp: "00:00:05.000", Title: "Next"}}
	if !chapters.Identical(snap.Chapters, next) {
		t.Fatalf("expected probed chapters %v to match %v", snap.Chapters, next)
	}
}

func TestFromProbeWithoutChapters(t *testing.T) {
	snap, err := FromProbe("set.mka", ffprobe.Result{})
	if err != nil {
		t.Fatalf("FromProbe: %v", err)
	}
	if snap.Chapters != nil || snap.Stored.Present() || snap.DurationKnown {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
