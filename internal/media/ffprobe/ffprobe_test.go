package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const sampleJSON = `{
  "streams": [{"index": 0, "codec_name": "aac", "codec_type": "audio"}],
  "chapters": [
    {"id": 1, "start_time": "0.000000", "end_time": "225.000000", "tags": {"title": "Intro"}},
    {"id": 2, "start_time": "225.500000", "end_time": "3725.000000", "tags": {"TITLE": "The Project"}}
  ],
  "format": {
    "filename": "set.mka",
    "nb_streams": 1,
    "duration": "3725.400000",
    "format_name": "matroska,webm",
    "tags": {"TRACKLIST_URL": "https://catalog.test/tracklist/1a2b3c/", "tracklist_title": "Sub Zero Project @ AMF"}
  }
}`

func TestParseAndHelpers(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if minutes, ok := result.DurationMinutes(); !ok || minutes != 62 {
		t.Fatalf("DurationMinutes = %d,%v", minutes, ok)
	}
	if url, ok := result.Tag("tracklist_url"); !ok || url != "https://catalog.test/tracklist/1a2b3c/" {
		t.Fatalf("Tag(url) = %q,%v", url, ok)
	}
	if title, ok := result.Tag("TRACKLIST_TITLE"); !ok || title != "Sub Zero Project @ AMF" {
		t.Fatalf("Tag(title) = %q,%v", title, ok)
	}
	if len(result.Chapters) != 2 || result.Chapters[1].Title() != "The Project" {
		t.Fatalf("chapters = %+v", result.Chapters)
	}
	ts, err := result.Chapters[1].Timestamp()
	if err != nil || ts != "00:03:45.500000000" {
		t.Fatalf("Timestamp = %q, %v", ts, err)
	}
	if len(result.RawJSON()) == 0 {
		t.Fatal("raw JSON not retained")
	}
}

func TestDurationHandlesInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if _, ok := result.DurationMinutes(); ok {
		t.Fatal("expected unknown duration")
	}
	if _, err := (Chapter{StartTime: "soon"}).Timestamp(); err == nil {
		t.Fatal("expected invalid start_time error")
	}
}

func TestFormatNanoTimestamp(t *testing.T) {
	if got := FormatNanoTimestamp(3725.123456789); got != "01:02:05.123456789" {
		t.Fatalf("FormatNanoTimestamp = %q", got)
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(payload, []byte(sampleJSON), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	binary := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat " + payload + "\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	result, err := Inspect(context.Background(), binary, filepath.Join(dir, "set.mka"))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(result.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(result.Chapters))
	}

	failing := filepath.Join(dir, "ffprobe-fail")
	if err := os.WriteFile(failing, []byte("#!/bin/sh\necho 'no such file' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := Inspect(context.Background(), failing, "missing.mka"); err == nil {
		t.Fatal("expected error from failing binary")
	}
}
