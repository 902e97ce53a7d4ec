package search

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"mixchapters/internal/config"
	"mixchapters/internal/query"
	"mixchapters/internal/textutil"
)

var (
	titleWeekendPattern = regexp.MustCompile(`(?i)\b(?:weekend|we|w)\s*(\d+)\b`)
	titleDayPattern     = regexp.MustCompile(`(?i)\b(?:day|d)\s*(\d+)\b`)
	segmentSplitPattern = regexp.MustCompile(`[@,]`)
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
	"2006",
}

// DurationScore is the duration sub-score for a known reference and a known
// candidate duration.
func DurationScore(w config.Scoring, refMinutes, candidateMinutes int) float64 {
	diff := refMinutes - candidateMinutes
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 1:
		return w.DurationExact
	case diff <= 5:
		return w.DurationClose
	case diff <= 15:
		return w.DurationNear
	case diff <= 30:
		return w.DurationLoose
	default:
		return w.DurationMismatch
	}
}

// Rank scores, filters and sorts candidates. refMinutes <= 0 means the
// reference duration is unknown. The input slice is not modified.
func Rank(candidates []Result, facets query.Facets, refMinutes int, w config.Scoring) []Result {
	recency := recencyScores(candidates, w)
	scored := make([]Result, 0, len(candidates))
	for i, candidate := range candidates {
		candidate.resetScoring()
		scoreCandidate(&candidate, facets, refMinutes, w)
		if recency[i] > 0 {
			candidate.Score += recency[i]
			candidate.Reasons = append(candidate.Reasons, fmt.Sprintf("recency=%+.1f", recency[i]))
		}
		if !keep(candidate, facets) {
			continue
		}
		scored = append(scored, candidate)
	}
	slices.SortStableFunc(scored, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	for i := range scored {
		scored[i].Index = i + 1
	}
	return scored
}

// resetScoring clears everything Rank derives so re-ranking starts clean.
func (r *Result) resetScoring() {
	r.Score = 0
	r.Reasons = nil
	r.MatchedKeywords = 0
	r.EventMatch = false
	r.abbreviationMatch = false
	r.aliasMatch = false
	r.Index = 0
}

func keep(r Result, facets query.Facets) bool {
	if r.MatchedKeywords == 0 {
		return false
	}
	if facets.HasAbbreviationOrAlias() && r.MatchedKeywords <= 1 &&
		!r.abbreviationMatch && !r.aliasMatch && !r.EventMatch {
		return false
	}
	return true
}

func scoreCandidate(r *Result, facets query.Facets, refMinutes int, w config.Scoring) {
	add := func(points float64, format string, args ...any) {
		r.Score += points
		r.Reasons = append(r.Reasons, fmt.Sprintf(format, args...))
	}

	if refMinutes > 0 && r.DurationKnown {
		points := DurationScore(w, refMinutes, r.DurationMinutes)
		add(points, "duration=%+.0f(%dm vs %dm)", points, r.DurationMinutes, refMinutes)
	}

	matchedAbbreviations := make(map[string]struct{})
	for _, abbr := range facets.Abbreviations {
		if abbreviationMatches(r.Title, abbr) {
			matchedAbbreviations[strings.ToLower(abbr)] = struct{}{}
			r.abbreviationMatch = true
			add(w.Abbreviation, "abbr(%s)=%+.0f", abbr, w.Abbreviation)
		}
	}

	matchedAliases := make(map[string]struct{})
	for _, alias := range facets.Aliases {
		if textutil.ContainsFold(r.Title, alias.Target) {
			matchedAliases[strings.ToLower(alias.Alias)] = struct{}{}
			r.aliasMatch = true
			add(w.Alias, "alias(%s)=%+.0f", alias.Alias, w.Alias)
		}
	}

	matchedEvents := make(map[query.EventPattern]struct{})
	for _, pattern := range facets.EventPatterns {
		found, conflicting := eventInTitle(r.Title, pattern)
		switch {
		case found:
			matchedEvents[pattern] = struct{}{}
			r.EventMatch = true
			add(w.EventMatch, "event(%s %s)=%+.0f", pattern.Kind, pattern.Number, w.EventMatch)
		case conflicting:
			add(w.EventMismatch, "event(%s %s)=%+.0f", pattern.Kind, pattern.Number, w.EventMismatch)
		}
	}

	if total := len(facets.Keywords); total > 0 {
		for _, keyword := range facets.Keywords {
			if keywordMatches(r.Title, keyword, matchedAbbreviations, matchedAliases, matchedEvents) {
				r.MatchedKeywords++
			}
		}
		coverage := w.KeywordCoverage * float64(r.MatchedKeywords) / float64(total)
		add(coverage, "keywords=%d/%d(%+.1f)", r.MatchedKeywords, total, coverage)
		if r.MatchedKeywords == total {
			add(w.KeywordAllBonus, "keywords_all=%+.0f", w.KeywordAllBonus)
		}
	}

	if facets.Year != "" && r.Date != "" && strings.Contains(r.Date, facets.Year) {
		add(w.Year, "year=%+.0f", w.Year)
	}
}

// keywordMatches counts a keyword when it occurs in the title or stands for a
// facet that already matched: an abbreviation, an alias token, or an event
// notation of the same kind and number.
func keywordMatches(title, keyword string, abbreviations, aliases map[string]struct{}, events map[query.EventPattern]struct{}) bool {
	if textutil.ContainsFold(title, keyword) {
		return true
	}
	if _, ok := abbreviations[keyword]; ok {
		return true
	}
	if _, ok := aliases[keyword]; ok {
		return true
	}
	if pattern, ok := query.EventPatternOf(keyword); ok {
		if _, matched := events[pattern]; matched {
			return true
		}
	}
	return false
}

func abbreviationMatches(title, abbr string) bool {
	wholeWord := regexp.MustCompile(`\b` + regexp.QuoteMeta(abbr) + `\b`)
	if wholeWord.MatchString(title) {
		return true
	}
	for _, segment := range segmentSplitPattern.Split(title, -1) {
		if initials, ok := segmentInitials(segment); ok && initials == abbr {
			return true
		}
	}
	return false
}

// segmentInitials returns the first letters of the capitalized words of a
// title segment. ok is false with fewer than two such words.
func segmentInitials(segment string) (string, bool) {
	var b strings.Builder
	count := 0
	for _, word := range strings.Fields(segment) {
		first := []rune(word)[0]
		if !unicode.IsUpper(first) {
			continue
		}
		b.WriteRune(first)
		count++
	}
	if count < 2 {
		return "", false
	}
	return b.String(), true
}

// eventInTitle reports whether the title names the requested weekend or day
// number, or only a different number of the same kind.
func eventInTitle(title string, pattern query.EventPattern) (found, conflicting bool) {
	re := titleWeekendPattern
	if pattern.Kind == query.Day {
		re = titleDayPattern
	}
	for _, m := range re.FindAllStringSubmatch(title, -1) {
		if trimZeros(m[1]) == trimZeros(pattern.Number) {
			return true, false
		}
		conflicting = true
	}
	return false, conflicting
}

func trimZeros(number string) string {
	trimmed := strings.TrimLeft(number, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// recencyScores places every parseable date linearly within the result
// set's date range. All-equal dates score RecencyFlat; unparseable dates 0.
func recencyScores(candidates []Result, w config.Scoring) []float64 {
	scores := make([]float64, len(candidates))
	dates := make([]time.Time, len(candidates))
	var lo, hi time.Time
	seen := false
	for i, candidate := range candidates {
		d, ok := parseDate(candidate.Date)
		if !ok {
			continue
		}
		dates[i] = d
		if !seen || d.Before(lo) {
			lo = d
		}
		if !seen || d.After(hi) {
			hi = d
		}
		seen = true
	}
	if !seen {
		return scores
	}
	span := hi.Sub(lo)
	for i := range candidates {
		if dates[i].IsZero() {
			continue
		}
		if span <= 0 {
			scores[i] = w.RecencyFlat
			continue
		}
		pos := float64(dates[i].Sub(lo)) / float64(span)
		scores[i] = math.Round(w.RecencyMax*pos*10) / 10
	}
	return scores
}

func parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
