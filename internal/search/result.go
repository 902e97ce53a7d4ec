package search

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoResults indicates that no candidate survived filtering.
var ErrNoResults = errors.New("no matching tracklists")

// Result is one ranked catalog candidate.
type Result struct {
	ID    string
	Title string
	URL   string
	// DurationMinutes is meaningful only when DurationKnown is set.
	DurationMinutes int
	DurationKnown   bool
	Date            string

	Score           float64
	MatchedKeywords int
	EventMatch      bool
	// Index is the 1-based display position after sorting.
	Index   int
	Reasons []string

	abbreviationMatch bool
	aliasMatch        bool
}

// DurationLabel renders the duration for display.
func (r Result) DurationLabel() string {
	if !r.DurationKnown {
		return "?"
	}
	if r.DurationMinutes >= 60 {
		return fmt.Sprintf("%dh %02dm", r.DurationMinutes/60, r.DurationMinutes%60)
	}
	return fmt.Sprintf("%dm", r.DurationMinutes)
}

// Breakdown joins the score reasons for logs.
func (r Result) Breakdown() string {
	return strings.Join(r.Reasons, " ")
}
