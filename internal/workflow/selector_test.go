package workflow

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"mixchapters/internal/config"
	"mixchapters/internal/metadata"
	"mixchapters/internal/query"
	"mixchapters/internal/search"
)

var candidates = []search.Result{
	{ID: "aaa111", Title: "Sub Zero Project @ AMF 2023", Score: 42.5, DurationMinutes: 60, DurationKnown: true, Date: "2023-10-21", Index: 1},
	{ID: "bbb222", Title: "Sub Zero Project @ Defqon.1 2023", Score: 12, Index: 2},
}

func TestAutoSelector(t *testing.T) {
	sel := AutoSelector{MinScore: 20}
	choice, err := sel.Choose(context.Background(), "set.mka", candidates)
	if err != nil || choice.Kind != ChoicePick || choice.Result.ID != "aaa111" {
		t.Fatalf("choice = %+v, err = %v", choice, err)
	}
	choice, _ = sel.Choose(context.Background(), "set.mka", candidates[1:])
	if choice.Kind != ChoiceRefuse {
		t.Fatalf("low score should be refused, got %+v", choice)
	}
	ok, _ := sel.ConfirmStored(context.Background(), "set.mka", metadata.Stored{URL: "u"})
	if !ok {
		t.Fatal("auto selector should accept stored references")
	}
}

func TestDefaultAutoScoreAcceptsFullKeywordMatch(t *testing.T) {
	defaults := config.Default()
	sel := AutoSelector{MinScore: defaults.Workflow.MinAutoScore}
	facets := query.Analyze("Martin Garrix Tomorrowland", nil)

	full := search.Rank([]search.Result{{ID: "full", Title: "Martin Garrix @ Tomorrowland Belgium"}}, facets, 0, defaults.Scoring)
	choice, err := sel.Choose(context.Background(), "set.mka", full)
	if err != nil || choice.Kind != ChoicePick {
		t.Fatalf("full keyword match without duration or year refused: %+v (%v)", full, err)
	}

	partial := search.Rank([]search.Result{{ID: "partial", Title: "Martin Garrix @ Ultra Miami"}}, facets, 0, defaults.Scoring)
	if choice, _ = sel.Choose(context.Background(), "set.mka", partial); choice.Kind != ChoiceRefuse {
		t.Fatalf("partial keyword match accepted: %+v", partial)
	}
}

func TestPromptSelectorChoose(t *testing.T) {
	tests := []struct {
		input    string
		wantKind ChoiceKind
		wantID   string
		wantErr  error
	}{
		{input: "2\n", wantKind: ChoicePick, wantID: "bbb222"},
		{input: "9\nabc\n1\n", wantKind: ChoicePick, wantID: "aaa111"},
		{input: "r\n", wantKind: ChoiceRefuse},
		{input: "S", wantKind: ChoiceSkip},
		{input: "", wantErr: ErrInputClosed},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			sel := NewPromptSelector(strings.NewReader(tt.input), &out)
			choice, err := sel.Choose(context.Background(), "set.mka", candidates)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Choose: %v", err)
			}
			if choice.Kind != tt.wantKind || choice.Result.ID != tt.wantID {
				t.Fatalf("choice = %+v", choice)
			}
			if !strings.Contains(out.String(), "Sub Zero Project @ AMF 2023") {
				t.Fatalf("candidates not rendered:\n%s", out.String())
			}
		})
	}
}

func TestPromptSelectorConfirmStored(t *testing.T) {
	stored := metadata.Stored{URL: "https://catalog.test/tracklist/aaa111/", Title: "AMF"}
	for input, want := range map[string]bool{"\n": true, "y\n": true, "maybe\nn\n": false} {
		var out bytes.Buffer
		got, err := NewPromptSelector(strings.NewReader(input), &out).ConfirmStored(context.Background(), "set.mka", stored)
		if err != nil {
			t.Fatalf("%q: %v", input, err)
		}
		if got != want {
			t.Fatalf("%q: got %v want %v", input, got, want)
		}
	}
}

func TestRenderCandidates(t *testing.T) {
	out := RenderCandidates(candidates)
	for _, want := range []string{"Score", "42.5", "1h 00m", "?", "2023-10-21"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
}
