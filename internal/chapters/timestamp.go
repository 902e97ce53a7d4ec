package chapters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var timestampPattern = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d{1,2}):(\d{2})(?:\.(\d+))?$`)

// NormalizeTimestamp renders m:ss, mm:ss, h:mm:ss or hh:mm:ss (with optional
// fractional seconds) as HH:MM:SS.mmm. Milliseconds are truncated or
// zero-padded to three digits.
func NormalizeTimestamp(s string) (string, error) {
	raw := strings.TrimSpace(s)
	m := timestampPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}
	hours := 0
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	if minutes >= 60 || seconds >= 60 {
		return "", fmt.Errorf("%w: %q has a field of 60 or more", ErrMalformedTimestamp, s)
	}
	millis := m[4]
	if len(millis) > 3 {
		millis = millis[:3]
	}
	for len(millis) < 3 {
		millis += "0"
	}
	return fmt.Sprintf("%02d:%02d:%02d.%s", hours, minutes, seconds, millis), nil
}

// FormatSeconds renders a whole number of seconds as H:MM:SS or M:SS, the
// shape tracklist cue tables are displayed in.
func FormatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
