package query

import (
	"reflect"
	"testing"
)

func TestAnalyzeYearAbbreviationAndKeywords(t *testing.T) {
	f := Analyze("2025 AMF Sub Zero Project", nil)
	if f.Year != "2025" {
		t.Fatalf("year = %q, want 2025", f.Year)
	}
	if !reflect.DeepEqual(f.Abbreviations, []string{"AMF"}) {
		t.Fatalf("abbreviations = %v", f.Abbreviations)
	}
	want := []string{"2025", "amf", "sub", "zero", "project"}
	if !reflect.DeepEqual(f.Keywords, want) {
		t.Fatalf("keywords = %v, want %v", f.Keywords, want)
	}
}

func TestAnalyzeWeekendPattern(t *testing.T) {
	f := Analyze("2025 - Tomorrowland Belgium - Martin Garrix WE2", nil)
	want := []EventPattern{{Kind: Weekend, Number: "2"}}
	if !reflect.DeepEqual(f.EventPatterns, want) {
		t.Fatalf("event patterns = %v, want %v", f.EventPatterns, want)
	}
	if len(f.Aliases) != 0 {
		t.Fatalf("expected no aliases, got %v", f.Aliases)
	}
	found := false
	for _, kw := range f.Keywords {
		if kw == "tomorrowland" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected tomorrowland keyword in %v", f.Keywords)
	}
	if len(f.Abbreviations) != 0 {
		t.Fatalf("WE2 must not be an abbreviation: %v", f.Abbreviations)
	}
}

func TestAnalyzeTokenFamilies(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []EventPattern
	}{
		{"weekend long", "Weekend1", []EventPattern{{Weekend, "1"}}},
		{"weekend short lower", "w2", []EventPattern{{Weekend, "2"}}},
		{"day long", "Day3", []EventPattern{{Day, "3"}}},
		{"day short", "D1", []EventPattern{{Day, "1"}}},
		{"not a pattern", "Wednesday", nil},
		{"mixed", "UMF D2 WE1", []EventPattern{{Day, "2"}, {Weekend, "1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.input, nil).EventPatterns
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Analyze(%q) patterns = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAnalyzeFirstYearWins(t *testing.T) {
	f := Analyze("2019 Ultra 2020 Miami", nil)
	if f.Year != "2019" {
		t.Fatalf("year = %q, want 2019", f.Year)
	}
	if Analyze("3019 Ultra", nil).Year != "" {
		t.Fatal("3019 is not a year token")
	}
}

func TestAnalyzeAliasesCaseInsensitive(t *testing.T) {
	aliases := map[string]string{"TML": "Tomorrowland", "asot": "A State Of Trance"}
	f := Analyze("tml 2024 ASOT 1200", aliases)
	want := []ResolvedAlias{
		{Alias: "tml", Target: "Tomorrowland"},
		{Alias: "ASOT", Target: "A State Of Trance"},
	}
	if !reflect.DeepEqual(f.Aliases, want) {
		t.Fatalf("aliases = %v, want %v", f.Aliases, want)
	}
	if !reflect.DeepEqual(f.Abbreviations, []string{"ASOT"}) {
		t.Fatalf("abbreviations = %v", f.Abbreviations)
	}
	if !f.HasAbbreviationOrAlias() {
		t.Fatal("expected HasAbbreviationOrAlias")
	}
}

func TestAnalyzeStripsPlatformID(t *testing.T) {
	f := Analyze("Armin van Buuren ASOT 1000 [dQw4w9WgXcQ]", nil)
	for _, kw := range f.Keywords {
		if kw == "[dqw4w9wgxcq]" {
			t.Fatalf("platform id leaked into keywords: %v", f.Keywords)
		}
	}
	if got := StripPlatformID("Set [abc]"); got != "Set [abc]" {
		t.Fatalf("short bracket should stay, got %q", got)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	for _, text := range []string{"   ", "- @ -", "a b"} {
		if f := Analyze(text, nil); !f.Empty() {
			t.Fatalf("%q: expected empty facets, got %+v", text, f)
		}
	}
	if f := Analyze("WE1", nil); f.Empty() {
		t.Fatal("event pattern alone is a facet")
	}
}

func TestIsYear(t *testing.T) {
	tests := map[string]bool{
		"1999":  true,
		"2025":  true,
		"1899":  false,
		"2100":  false,
		"abc":   false,
		"20245": false,
		"":      false,
	}
	for token, want := range tests {
		if got := IsYear(token); got != want {
			t.Errorf("IsYear(%q) = %v, want %v", token, got, want)
		}
	}
}
