package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Undetermined is the ISO 639-2 code for an unknown language.
const Undetermined = "und"

// words accepts the full English names people tend to type in config files.
var words = map[string]string{
	"english":    "en",
	"german":     "de",
	"french":     "fr",
	"spanish":    "es",
	"italian":    "it",
	"dutch":      "nl",
	"portuguese": "pt",
	"japanese":   "ja",
}

func parse(code string) (language.Base, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return language.Base{}, false
	}
	if mapped, ok := words[code]; ok {
		code = mapped
	}
	base, err := language.ParseBase(code)
	if err != nil {
		return language.Base{}, false
	}
	return base, base.String() != Undetermined
}

// Valid reports whether code names a known language. "und" is valid.
func Valid(code string) bool {
	if strings.EqualFold(strings.TrimSpace(code), Undetermined) {
		return true
	}
	_, ok := parse(code)
	return ok
}

// ToISO3 converts a 2- or 3-letter code or an English word to ISO 639-2.
// Unknown input yields "und".
func ToISO3(code string) string {
	base, ok := parse(code)
	if !ok {
		return Undetermined
	}
	return base.ISO3()
}

// ToBCP47 returns the shortest BCP 47 tag for code, or "und".
func ToBCP47(code string) string {
	base, ok := parse(code)
	if !ok {
		return Undetermined
	}
	tag, err := language.Compose(base)
	if err != nil {
		return Undetermined
	}
	return tag.String()
}

// DisplayName returns the English name of code, or the uppercased code when
// it is not recognized.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	base, ok := parse(trimmed)
	if !ok {
		return strings.ToUpper(trimmed)
	}
	tag, err := language.Compose(base)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}
