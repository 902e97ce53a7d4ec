package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// Keys written by the JSON handler for the built-in record fields.
const (
	KeyTime    = "ts"
	KeyLevel   = "level"
	KeyMessage = "msg"
	KeySource  = "source"
)

const redacted = "[redacted]"

// secretKeys never reach a log sink verbatim. Catalog credentials and session
// cookies are the only secrets the tool handles.
var secretKeys = map[string]struct{}{
	"password":       {},
	"redis_password": {},
	"cookie":         {},
	"cookies":        {},
	"session_cookie": {},
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) (slog.Handler, error) {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	}), nil
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch attr.Key {
		case slog.TimeKey:
			if attr.Value.Kind() == slog.KindTime {
				return slog.String(KeyTime, attr.Value.Time().UTC().Format(time.RFC3339))
			}
			attr.Key = KeyTime
			return attr
		case slog.LevelKey:
			return slog.String(KeyLevel, strings.ToLower(attr.Value.String()))
		case slog.MessageKey:
			attr.Key = KeyMessage
			return attr
		case slog.SourceKey:
			if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
				return slog.String(KeySource, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
			return attr
		}
	}
	if isSecretKey(attr.Key) {
		return slog.String(attr.Key, redacted)
	}
	return attr
}

func isSecretKey(key string) bool {
	_, ok := secretKeys[strings.ToLower(key)]
	return ok
}
