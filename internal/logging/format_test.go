package logging_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mixchapters/internal/logging"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"plain string", "embedded", "embedded"},
		{"string with space", "AMF 2023", `"AMF 2023"`},
		{"empty string", "", `""`},
		{"json number", float64(3), "3"},
		{"fraction", 87.5, "87.5"},
		{"int", 42, "42"},
		{"bool", true, "true"},
		{"error", errors.New("no tracks"), `"no tracks"`},
		{"duration", 90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := logging.FormatValue(tt.in); got != tt.want {
				t.Fatalf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestJSONLogRedactsSecrets(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "secrets.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("login attempt",
		logging.String("identity", "dj@example.com"),
		logging.String("password", "hunter2"),
		logging.String("Cookie", "sid=abc"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hunter2") || strings.Contains(string(content), "sid=abc") {
		t.Fatalf("secret leaked: %s", content)
	}
	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.KeyMessage] != "login attempt" || record["identity"] != "dj@example.com" || record["password"] != "[redacted]" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().AddDate(0, 0, -40)
	write := func(name string, mod time.Time) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
		return path
	}
	stale := write("mixchapters-2026-01-01.log", old)
	active := write(logging.LogFileName, old)
	fresh := write("mixchapters-today.log", time.Now())
	other := write("ledger.db", old)

	removed := logging.CleanupOldLogs(logging.NewNop(), 30, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "*.log",
		Exclude: []string{active},
	})
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale log should be removed, stat err = %v", err)
	}
	for _, path := range []string{active, fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s should remain: %v", filepath.Base(path), err)
		}
	}

	if n := logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: dir}); n != 0 {
		t.Fatalf("disabled retention removed %d files", n)
	}
}
