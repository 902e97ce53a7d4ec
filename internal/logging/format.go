package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the local-time layout used on the console and by the
// logs command.
const TimestampLayout = time.DateTime

// FormatTimestamp renders ts in local time, or "" for the zero time.
func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(TimestampLayout)
}

// FormatValue renders an arbitrary field value for key=value output, quoting
// it when it contains spaces, '=' or quotes.
func FormatValue(v any) string {
	if sv, ok := v.(slog.Value); ok {
		return quoteIfNeeded(plainValue(sv))
	}
	return FormatValue(slog.AnyValue(v))
}

// plainValue renders v without quoting.
func plainValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return FormatTimestamp(v.Time())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		default:
			return fmt.Sprint(x)
		}
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
