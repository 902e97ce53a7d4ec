package chapters

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUntimed marks a tracklist whose tracks have no timestamps yet.
	ErrUntimed = errors.New("tracklist has no timestamps")
	// ErrMalformedTimestamp marks a bracketed time with an unknown shape or out-of-range field.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrMalformedLine marks content where no line follows the chapter grammar.
	ErrMalformedLine = errors.New("no valid chapter lines")
	// ErrMissingTitle marks a bracketed time with nothing after it.
	ErrMissingTitle = errors.New("chapter line has no title")
)

// Chapter is one navigation point destined for a container.
type Chapter struct {
	Timestamp string
	Title     string
	Language  string
}

// Existing is a chapter already present in a file, at millisecond or finer precision.
type Existing struct {
	Timestamp string
	Title     string
}

var (
	chapterLinePattern  = regexp.MustCompile(`^\s*\[([^\]]*)\]\s*(.*?)\s*$`)
	timeLikePattern     = regexp.MustCompile(`^[0-9:.]+$`)
	numberedLinePattern = regexp.MustCompile(`^\s*\d+\.\s+\S`)
)

// Parse converts lines into chapters. Lines without a bracketed time are
// skipped. A bracketed time that does not normalize, or that has no title
// after it, fails the whole parse.
func Parse(lines []string, language string) ([]Chapter, error) {
	var out []Chapter
	for i, line := range lines {
		m := chapterLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		raw := strings.TrimSpace(m[1])
		if !timeLikePattern.MatchString(raw) {
			continue
		}
		ts, err := NormalizeTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if m[2] == "" {
			return nil, fmt.Errorf("line %d: [%s]: %w", i+1, raw, ErrMissingTitle)
		}
		out = append(out, Chapter{Timestamp: ts, Title: m[2], Language: language})
	}
	if len(out) == 0 {
		if IsUntimed(lines) {
			return nil, ErrUntimed
		}
		return nil, ErrMalformedLine
	}
	return out, nil
}

// IsUntimed reports whether lines contain no bracketed times but at least one
// "<n>. title" numbered track.
func IsUntimed(lines []string) bool {
	numbered := false
	for _, line := range lines {
		if m := chapterLinePattern.FindStringSubmatch(line); m != nil && timeLikePattern.MatchString(strings.TrimSpace(m[1])) {
			return false
		}
		if numberedLinePattern.MatchString(line) {
			numbered = true
		}
	}
	return numbered
}

// Identical reports whether existing and next describe the same chapters.
// Titles must match exactly; existing timestamps are truncated to millisecond
// precision before comparison.
func Identical(existing []Existing, next []Chapter) bool {
	if len(existing) == 0 || len(existing) != len(next) {
		return false
	}
	for i := range existing {
		if existing[i].Title != next[i].Title {
			return false
		}
		if truncateFraction(existing[i].Timestamp) != next[i].Timestamp {
			return false
		}
	}
	return true
}

func truncateFraction(ts string) string {
	ts = strings.TrimSpace(ts)
	dot := strings.IndexByte(ts, '.')
	if dot < 0 {
		return ts
	}
	frac := ts[dot+1:]
	if len(frac) > 3 {
		frac = frac[:3]
	}
	return ts[:dot+1] + frac
}
