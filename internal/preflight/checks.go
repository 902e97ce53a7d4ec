package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mixchapters/internal/config"
	"mixchapters/internal/deps"
	"mixchapters/internal/session"
)

const networkCheckTimeout = 10 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckMediaTools converts binary availability into results. Optional tools
// pass even when missing.
func CheckMediaTools(ffprobe, mkvpropedit string, dryRun bool) []Result {
	statuses := deps.CheckBinaries(deps.MediaRequirements(ffprobe, mkvpropedit, dryRun))
	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		r := Result{Name: s.Name, Passed: s.Satisfied()}
		switch {
		case s.Available:
			r.Detail = s.Path
		case s.Optional:
			r.Detail = s.Detail + " (not needed for dry runs)"
		default:
			r.Detail = s.Detail
		}
		results = append(results, r)
	}
	return results
}

// CheckCatalog verifies the catalog front page answers. A rate-limit page
// counts as reachable but is reported.
func CheckCatalog(ctx context.Context, baseURL, userAgent string) Result {
	const name = "Catalog"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, networkCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	client := &http.Client{Timeout: networkCheckTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	switch {
	case session.IsRateLimited(resp.StatusCode, body):
		return Result{Name: name, Passed: true, Detail: "reachable (rate limited right now)"}
	case resp.StatusCode >= http.StatusInternalServerError:
		return Result{Name: name, Detail: fmt.Sprintf("server error (%d)", resp.StatusCode)}
	default:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%d)", resp.StatusCode)}
	}
}

// CheckSessionStore opens the configured session store and reads the cached
// record.
func CheckSessionStore(ctx context.Context, cfg *config.Config) Result {
	name := "Session store (" + cfg.Session.Store + ")"

	checkCtx, cancel := context.WithTimeout(ctx, networkCheckTimeout)
	defer cancel()

	store, err := session.NewStore(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	record, err := store.Load(checkCtx)
	switch {
	case errors.Is(err, session.ErrNoRecord):
		return Result{Name: name, Passed: true, Detail: "no cached session"}
	case err != nil:
		return Result{Name: name, Detail: err.Error()}
	case record.Expired(time.Now()):
		return Result{Name: name, Passed: true, Detail: "cached session expired; next run logs in again"}
	default:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("cached session for %s", displayIdentity(record.Identity))}
	}
}

func displayIdentity(identity string) string {
	if identity == "" {
		return "anonymous"
	}
	return identity
}

func summarizeNetworkError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	return err.Error()
}
