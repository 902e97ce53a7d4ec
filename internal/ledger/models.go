package ledger

import (
	"strings"
	"time"
)

// Status is the per-file outcome stored in the ledger.
type Status string

const (
	// StatusEmbedded means chapters and tags were written to the file.
	StatusEmbedded Status = "embedded"
	// StatusUnchanged means the file already carried identical chapters.
	StatusUnchanged Status = "unchanged"
	// StatusSkipped means the operator or the selector declined every candidate.
	StatusSkipped Status = "skipped"
	// StatusReview means the file needs a different query or selection.
	StatusReview Status = "review"
	// StatusFailed means processing hit an error that a retry may clear.
	StatusFailed Status = "failed"
)

var knownStatuses = map[Status]struct{}{
	StatusEmbedded:  {},
	StatusUnchanged: {},
	StatusSkipped:   {},
	StatusReview:    {},
	StatusFailed:    {},
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := knownStatuses[s]
	return s, ok
}

// Entry is one recorded outcome.
type Entry struct {
	ID         int64
	RunID      string
	File       string
	Status     Status
	URL        string
	Title      string
	Chapters   int
	Strategy   string
	Error      string
	RecordedAt time.Time
}

// Filter narrows Recent queries. Zero values mean no constraint.
type Filter struct {
	Status Status
	File   string
	RunID  string
	Limit  int
}
