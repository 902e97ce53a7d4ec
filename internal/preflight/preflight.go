package preflight

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"mixchapters/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options tune RunAll.
type Options struct {
	// DryRun relaxes the mkvpropedit requirement.
	DryRun bool
}

// RunAll executes the local checks: writable state directories and the
// media tools.
func RunAll(_ context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Ledger directory", filepath.Dir(cfg.Paths.LedgerPath)),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Session.Store == config.StoreFile {
		results = append(results, CheckDirectoryAccess("Session cache directory", filepath.Dir(cfg.Session.CachePath)))
	}
	results = append(results, CheckMediaTools(cfg.Media.FFprobeBinary, cfg.Media.MkvpropeditBinary, opts.DryRun)...)
	return results
}

// Failed joins every failed result into one error, or returns nil.
func Failed(results []Result) error {
	var failures []string
	for _, r := range results {
		if !r.Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return errors.New("preflight failed: " + strings.Join(failures, "; "))
}
