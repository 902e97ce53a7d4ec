package search

import (
	"regexp"
	"strconv"
)

var (
	hoursPattern   = regexp.MustCompile(`(?i)(\d+)\s*h`)
	minutesPattern = regexp.MustCompile(`(?i)(\d+)\s*m`)
)

// ParseDuration converts catalog play-time text ("2h", "45m", "1h 30m") to
// minutes. ok is false when neither component is present.
func ParseDuration(text string) (minutes int, ok bool) {
	if m := hoursPattern.FindStringSubmatch(text); m != nil {
		if h, err := strconv.Atoi(m[1]); err == nil {
			minutes += h * 60
			ok = true
		}
	}
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			minutes += n
			ok = true
		}
	}
	if !ok {
		return 0, false
	}
	return minutes, true
}
