package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mixchapters/internal/ledger"
	"mixchapters/internal/testsupport"
)

const tracklistPath = "/tracklist/1a2b3c/sub-zero-project-amf-2025.html"

func seedCatalog(t *testing.T) *testsupport.Catalog {
	t.Helper()
	catalog := testsupport.NewCatalog(t)
	catalog.SetSearchHTML(testsupport.SearchResultHTML(
		testsupport.SearchItem{Href: tracklistPath, Title: "Sub Zero Project @ AMF 2025", Duration: "1h 0m", Date: "2025-10-25"},
		testsupport.SearchItem{Href: "/tracklist/9z8y7x/sub-zero-project-defqon.html", Title: "Sub Zero Project @ Defqon.1 2025", Duration: "1h 15m", Date: "2025-06-28"},
	))
	catalog.SetPage(tracklistPath, testsupport.TracklistHTML("Sub Zero Project @ AMF 2025",
		testsupport.Track{Name: "Sub Zero Project - Intro", Cue: 0},
		testsupport.Track{Name: "Sub Zero Project - The Project", Cue: 225},
	))
	return catalog
}

func TestSearchCommandRendersCandidates(t *testing.T) {
	catalog := seedCatalog(t)
	env := setupCLITestEnv(t, testsupport.WithCatalog(catalog.URL()))

	out, _, err := runCLI(t, []string{"search", "--duration", "60", "--explain", "Sub", "Zero", "Project", "AMF", "2025"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Sub Zero Project @ AMF 2025")
	requireContains(t, out, "Keywords")
	requireContains(t, out, tracklistPath)
	if first, second := strings.Index(out, "@ AMF 2025"), strings.Index(out, "@ Defqon.1"); first < 0 || second >= 0 && second < first {
		t.Fatalf("expected AMF candidate ranked first:\n%s", out)
	}
}

func TestTagEmbedsAndRecordsHistory(t *testing.T) {
	catalog := seedCatalog(t)
	env := setupCLITestEnv(t, testsupport.WithCatalog(catalog.URL()), testsupport.WithPolicy("refresh"))
	env.cfg.Workflow.MinAutoScore = 0
	writeTestConfig(t, env.configPath, env.cfg)

	media := filepath.Join(env.baseDir, "media", "Sub Zero Project @ AMF 2025.mka")
	testsupport.WriteFile(t, media, 64)
	probe := testsupport.WriteText(t, env.baseDir, "probe.json",
		`{"streams":[{"index":0,"codec_type":"audio"}],"format":{"duration":"3600.5","tags":{"ARTIST":"Sub Zero Project"}}}`)
	argsFile := filepath.Join(env.baseDir, "mkvpropedit.args")
	testsupport.StubBinaries(t, filepath.Join(env.baseDir, "bin-ffprobe"), "#!/bin/sh\ncat '"+probe+"'\n", "ffprobe")
	testsupport.StubBinaries(t, filepath.Join(env.baseDir, "bin-mkv"), "#!/bin/sh\necho \"$@\" > '"+argsFile+"'\n", "mkvpropedit")

	out, _, err := runCLI(t, []string{"tag", "--non-interactive", media}, env.configPath)
	if err != nil {
		t.Fatalf("tag: %v\n%s", err, out)
	}
	requireContains(t, out, "embedded")
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("mkvpropedit was not invoked: %v", err)
	}
	requireContains(t, string(args), "--chapters")
	requireContains(t, string(args), "--tags global:")

	store := testsupport.MustOpenLedger(t, env.cfg)
	entries, err := store.Recent(context.Background(), ledger.Filter{File: media})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != ledger.StatusEmbedded || entries[0].Chapters != 2 {
		t.Fatalf("ledger entries = %+v", entries)
	}
	if entries[0].URL != catalog.URL()+"/tracklist/1a2b3c/" {
		t.Fatalf("recorded url = %q", entries[0].URL)
	}

	out, _, err = runCLI(t, []string{"history", "--status", "embedded"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Sub Zero Project @ AMF 2025.mka")
}

func TestTagDryRunWritesNothing(t *testing.T) {
	catalog := seedCatalog(t)
	env := setupCLITestEnv(t, testsupport.WithCatalog(catalog.URL()), testsupport.WithPolicy("refresh"))

	media := filepath.Join(env.baseDir, "set.mka")
	testsupport.WriteFile(t, media, 64)
	stamps := testsupport.WriteText(t, env.baseDir, "stamps.txt", "[0:00] Intro\n[4:10] Drop\n")
	testsupport.StubBinaries(t, filepath.Join(env.baseDir, "bin-ffprobe"), "#!/bin/sh\necho '{\"format\":{}}'\n", "ffprobe")
	testsupport.StubBinaries(t, filepath.Join(env.baseDir, "bin-mkv"), "#!/bin/sh\nexit 3\n", "mkvpropedit")

	out, _, err := runCLI(t, []string{"tag", "--dry-run", "--from-file", stamps, media}, env.configPath)
	if err != nil {
		t.Fatalf("tag --dry-run: %v\n%s", err, out)
	}
	requireContains(t, out, "embedded")

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No outcomes recorded")
	if len(catalog.Requests()) != 0 {
		t.Fatalf("timestamp file run contacted the catalog: %v", catalog.Requests())
	}
}

func TestTagRejectsFromFileWithManyFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"tag", "--from-file", "stamps.txt", "a.mka", "b.mka"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "single media file") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestYearFlagMustBeAYear(t *testing.T) {
	catalog := seedCatalog(t)
	env := setupCLITestEnv(t, testsupport.WithCatalog(catalog.URL()))

	for _, args := range [][]string{
		{"search", "--year", "abc", "Sub", "Zero", "Project"},
		{"tag", "--year", "225", "--dry-run", "a.mka"},
	} {
		_, _, err := runCLI(t, args, env.configPath)
		if err == nil || !strings.Contains(err.Error(), "--year") {
			t.Fatalf("%v: expected --year usage error, got %v", args, err)
		}
	}
	if len(catalog.Requests()) != 0 {
		t.Fatalf("invalid year reached the catalog: %v", catalog.Requests())
	}
}

func TestSessionStatusWithoutRecord(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"session", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("session status: %v", err)
	}
	requireContains(t, out, "none")
	requireContains(t, out, "Credentials")
}

func TestSessionLoginAndClear(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	env := setupCLITestEnv(t,
		testsupport.WithCatalog(catalog.URL()),
		testsupport.WithCredentials(testsupport.CatalogEmail, testsupport.CatalogPassword),
	)

	out, _, err := runCLI(t, []string{"session", "login"}, env.configPath)
	if err != nil {
		t.Fatalf("session login: %v", err)
	}
	requireContains(t, out, "Logged in as "+testsupport.CatalogEmail)

	out, _, err = runCLI(t, []string{"session", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("session status: %v", err)
	}
	requireContains(t, out, "cached")

	if _, _, err := runCLI(t, []string{"session", "clear"}, env.configPath); err != nil {
		t.Fatalf("session clear: %v", err)
	}
	if _, err := os.Stat(env.cfg.Session.CachePath); !os.IsNotExist(err) {
		t.Fatalf("session cache still present: %v", err)
	}
}

func TestDoctorReportsMissingTools(t *testing.T) {
	catalog := testsupport.NewCatalog(t)
	env := setupCLITestEnv(t, testsupport.WithCatalog(catalog.URL()))
	env.cfg.Media.FFprobeBinary = "clearly-not-ffprobe"
	env.cfg.Media.MkvpropeditBinary = "clearly-not-mkvpropedit"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "FFprobe") {
		t.Fatalf("expected ffprobe failure, got %v", err)
	}
	requireContains(t, out, "FAIL")
	requireContains(t, out, "Catalog")
	requireContains(t, out, "no cached session")
}

func TestLogsCommandFiltersByRun(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteText(t, env.cfg.Paths.LogDir, "mixchapters.log",
		`{"ts":"2026-03-01T10:00:00Z","level":"info","msg":"batch started","component":"runner","run_id":"run-1"}`+"\n"+
			`{"ts":"2026-03-01T11:00:00Z","level":"info","msg":"batch finished","component":"runner","run_id":"run-2"}`+"\n")

	out, _, err := runCLI(t, []string{"logs", "--run", "run-2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "batch finished")
	if strings.Contains(out, "batch started") {
		t.Fatalf("record from another run shown:\n%s", out)
	}
}
