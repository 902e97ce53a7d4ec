package workflow

import (
	"context"
	"errors"
	"sync"

	"mixchapters/internal/media/mkvtool"
	"mixchapters/internal/metadata"
	"mixchapters/internal/search"
	"mixchapters/internal/tracklist"
)

type fakeSearcher struct {
	results []search.Result
	err     error
	calls   int
	texts   []string
}

func (f *fakeSearcher) Search(_ context.Context, text string, _ int, _ string) ([]search.Result, error) {
	f.calls++
	f.texts = append(f.texts, text)
	return f.results, f.err
}

type fakeResolver struct {
	content  map[string]tracklist.Content
	errs     map[string]error
	resolved []string
}

func (f *fakeResolver) Resolve(_ context.Context, sel tracklist.Selection) (tracklist.Content, error) {
	key := sel.ID
	if key == "" {
		key = sel.URL
	}
	f.resolved = append(f.resolved, key)
	if err, ok := f.errs[key]; ok {
		return tracklist.Content{}, err
	}
	content, ok := f.content[key]
	if !ok {
		return tracklist.Content{}, tracklist.ErrNotFound
	}
	return content, nil
}

type fakeInspector struct {
	snaps map[string]metadata.Snapshot
}

func (f *fakeInspector) Inspect(_ context.Context, path string) (metadata.Snapshot, error) {
	snap, ok := f.snaps[path]
	if !ok {
		return metadata.Snapshot{}, errors.New("ffprobe: no such file")
	}
	return snap, nil
}

type fakeEmbedder struct {
	mu       sync.Mutex
	requests []mkvtool.Request
	err      error
}

func (f *fakeEmbedder) Embed(_ context.Context, req mkvtool.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.err
}

// scriptedSelector replays choices in order.
type scriptedSelector struct {
	choices  []ChoiceKind
	confirm  bool
	offered  [][]search.Result
	confirms int
}

func (s *scriptedSelector) Choose(_ context.Context, _ string, candidates []search.Result) (Choice, error) {
	s.offered = append(s.offered, candidates)
	if len(s.choices) == 0 {
		return Choice{Kind: ChoicePick, Result: candidates[0]}, nil
	}
	kind := s.choices[0]
	s.choices = s.choices[1:]
	if kind == ChoicePick {
		return Choice{Kind: ChoicePick, Result: candidates[0]}, nil
	}
	return Choice{Kind: kind}, nil
}

func (s *scriptedSelector) ConfirmStored(context.Context, string, metadata.Stored) (bool, error) {
	s.confirms++
	return s.confirm, nil
}
