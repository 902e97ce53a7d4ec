// Package query extracts structured search facets from free text such as a
// recording's file name.
package query

import (
	"regexp"
	"strings"
)

// EventKind distinguishes the festival weekend and day notations.
type EventKind string

const (
	Weekend EventKind = "weekend"
	Day     EventKind = "day"
)

// EventPattern is a requested weekend or day number.
type EventPattern struct {
	Kind   EventKind
	Number string
}

// ResolvedAlias links a query token to the full event name it abbreviates.
type ResolvedAlias struct {
	Alias  string
	Target string
}

// Facets is the structured view of a query. Year is empty when absent.
type Facets struct {
	Year          string
	Keywords      []string
	Abbreviations []string
	EventPatterns []EventPattern
	Aliases       []ResolvedAlias
}

// Empty reports whether no facet was extracted.
func (f Facets) Empty() bool {
	return f.Year == "" && len(f.Keywords) == 0 && len(f.Abbreviations) == 0 &&
		len(f.EventPatterns) == 0 && len(f.Aliases) == 0
}

// HasAbbreviationOrAlias reports whether the query named an event by a short form.
func (f Facets) HasAbbreviationOrAlias() bool {
	return len(f.Abbreviations) > 0 || len(f.Aliases) > 0
}

var (
	platformIDPattern   = regexp.MustCompile(`\s*\[[A-Za-z0-9_-]{11}\]\s*$`)
	yearPattern         = regexp.MustCompile(`^(?:19|20)\d{2}$`)
	weekendTokenPattern = regexp.MustCompile(`(?i)^(?:weekend|we|w)(\d+)$`)
	dayTokenPattern     = regexp.MustCompile(`(?i)^(?:day|d)(\d+)$`)
	abbreviationPattern = regexp.MustCompile(`^[A-Z]{2,}$`)
)

// IsYear reports whether token is a bare 19xx or 20xx year.
func IsYear(token string) bool {
	return yearPattern.MatchString(token)
}

// StripPlatformID removes one trailing bracketed 11-character video id.
func StripPlatformID(text string) string {
	return platformIDPattern.ReplaceAllString(text, "")
}

// Analyze derives facets from text. Alias keys are matched case-insensitively;
// the table is expected to carry uppercased keys (see config.LoadAliases), but
// mixed-case keys are tolerated.
func Analyze(text string, aliases map[string]string) Facets {
	var facets Facets
	lookup := foldAliases(aliases)

	for _, token := range strings.Fields(StripPlatformID(text)) {
		switch {
		case IsYear(token):
			if facets.Year == "" {
				facets.Year = token
			}
		case isEventToken(token):
			pattern, _ := EventPatternOf(token)
			facets.EventPatterns = append(facets.EventPatterns, pattern)
		case abbreviationPattern.MatchString(token):
			facets.Abbreviations = append(facets.Abbreviations, token)
		}

		if target, ok := lookup[strings.ToUpper(token)]; ok {
			facets.Aliases = append(facets.Aliases, ResolvedAlias{Alias: token, Target: target})
		}

		if len(token) > 2 {
			facets.Keywords = append(facets.Keywords, strings.ToLower(token))
		}
	}
	return facets
}

// EventPatternOf classifies a single token as a weekend or day notation.
func EventPatternOf(token string) (EventPattern, bool) {
	if m := weekendTokenPattern.FindStringSubmatch(token); m != nil {
		return EventPattern{Kind: Weekend, Number: m[1]}, true
	}
	if m := dayTokenPattern.FindStringSubmatch(token); m != nil {
		return EventPattern{Kind: Day, Number: m[1]}, true
	}
	return EventPattern{}, false
}

func isEventToken(token string) bool {
	_, ok := EventPatternOf(token)
	return ok
}

func foldAliases(aliases map[string]string) map[string]string {
	if len(aliases) == 0 {
		return nil
	}
	folded := make(map[string]string, len(aliases))
	for key, value := range aliases {
		folded[strings.ToUpper(strings.TrimSpace(key))] = value
	}
	return folded
}
