package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"mixchapters/internal/logging"
)

// Record is one decoded JSON log line.
type Record struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	File      string
	RunID     string
	Fields    map[string]any
}

var reservedKeys = map[string]struct{}{
	logging.KeyTime: {}, logging.KeyLevel: {}, logging.KeyMessage: {}, logging.KeySource: {},
	logging.FieldComponent: {}, logging.FieldFile: {}, logging.FieldRunID: {},
}

// ParseRecord decodes a JSON log line. Lines that are not JSON objects are
// rejected.
func ParseRecord(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Record{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, false
	}
	rec := Record{
		Level:     stringField(raw, logging.KeyLevel),
		Message:   stringField(raw, logging.KeyMessage),
		Component: stringField(raw, logging.FieldComponent),
		File:      stringField(raw, logging.FieldFile),
		RunID:     stringField(raw, logging.FieldRunID),
	}
	if ts := stringField(raw, logging.KeyTime); ts != "" {
		rec.Time, _ = time.Parse(time.RFC3339, ts)
	}
	for key, value := range raw {
		if _, skip := reservedKeys[key]; skip {
			continue
		}
		if rec.Fields == nil {
			rec.Fields = make(map[string]any)
		}
		rec.Fields[key] = value
	}
	return rec, true
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

// Filter narrows records. Zero values match everything.
type Filter struct {
	RunID    string
	File     string
	MinLevel slog.Level
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec Record) bool {
	if f.RunID != "" && rec.RunID != f.RunID {
		return false
	}
	if f.File != "" && rec.File != f.File {
		return false
	}
	return levelOf(rec.Level) >= f.MinLevel
}

// ParseLevel converts a level name into a slog level. Unknown names map to
// debug so nothing is hidden by a typo.
func ParseLevel(name string) slog.Level {
	return levelOf(name)
}

func levelOf(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// Format renders rec on one line, extra fields sorted by key.
func (r Record) Format() string {
	var b strings.Builder
	if ts := logging.FormatTimestamp(r.Time); ts != "" {
		b.WriteString(ts)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(r.Level))
	if r.Component != "" {
		fmt.Fprintf(&b, " [%s]", r.Component)
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, logging.FormatValue(r.Fields[k]))
	}
	return b.String()
}
