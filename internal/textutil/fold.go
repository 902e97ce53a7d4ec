package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics and case-folds text so "Böse" and "BOSE" compare
// equal. Transformers carry state, so a fresh chain is built per call.
func Fold(text string) string {
	if text == "" {
		return ""
	}
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(strip, text)
	if err != nil {
		stripped = text
	}
	return cases.Fold().String(stripped)
}

// ContainsFold reports whether needle occurs in haystack after folding both.
// An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	needle = Fold(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	return strings.Contains(Fold(haystack), needle)
}
