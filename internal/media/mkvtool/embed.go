package mkvtool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mixchapters/internal/chapters"
	"mixchapters/internal/logging"
	"mixchapters/internal/metadata"
	"mixchapters/internal/textutil"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// Request is one embed operation.
type Request struct {
	Path     string
	Chapters []chapters.Chapter
	Stored   metadata.Stored
	// Preserve carries global tags to keep; mkvpropedit replaces the whole set.
	Preserve map[string]string
}

// Embedder applies chapters and tags with mkvpropedit.
type Embedder struct {
	binary  string
	timeout time.Duration
	dryRun  bool
	logger  *slog.Logger
	run     commandRunner
	uid     UIDFunc
}

// Option customises an Embedder.
type Option func(*Embedder)

// WithDryRun logs what would be written instead of touching the file.
func WithDryRun(dryRun bool) Option {
	return func(e *Embedder) { e.dryRun = dryRun }
}

// WithTimeout bounds each mkvpropedit invocation.
func WithTimeout(d time.Duration) Option {
	return func(e *Embedder) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) { e.logger = logger }
}

// WithCommandRunner allows injecting a custom command runner for tests.
func WithCommandRunner(r commandRunner) Option {
	return func(e *Embedder) {
		if r != nil {
			e.run = r
		}
	}
}

// WithUIDs overrides the UID source.
func WithUIDs(uid UIDFunc) Option {
	return func(e *Embedder) { e.uid = uid }
}

// NewEmbedder builds an Embedder for the mkvpropedit binary.
func NewEmbedder(binary string, opts ...Option) *Embedder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "mkvpropedit"
	}
	e := &Embedder{binary: binary, run: defaultCommandRunner, uid: RandomUID}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "mkvtool")
	return e
}

// DryRun reports whether the embedder writes nothing.
func (e *Embedder) DryRun() bool { return e.dryRun }

// Embed writes req.Chapters and the stored reference into req.Path.
func (e *Embedder) Embed(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("embed: media path is required")
	}
	if len(req.Chapters) == 0 {
		return errors.New("embed: no chapters to write")
	}
	chaptersXML, err := ChaptersXML(req.Chapters, e.uid)
	if err != nil {
		return err
	}
	tagsXML, err := TagsXML(req.Stored, req.Preserve)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, e.logger)

	if e.dryRun {
		logger.Info("dry run; container left untouched",
			logging.String("path", req.Path),
			logging.Int("chapters", len(req.Chapters)),
			logging.String("url", req.Stored.URL),
		)
		logger.Debug("chapters xml", logging.String("xml", string(chaptersXML)))
		return nil
	}

	if _, err := os.Stat(req.Path); err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	workDir, err := os.MkdirTemp("", "mixchapters-")
	if err != nil {
		return fmt.Errorf("embed: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	base := textutil.SanitizeToken(strings.TrimSuffix(filepath.Base(req.Path), filepath.Ext(req.Path)))
	chaptersPath := filepath.Join(workDir, base+".chapters.xml")
	tagsPath := filepath.Join(workDir, base+".tags.xml")
	if err := os.WriteFile(chaptersPath, chaptersXML, 0o600); err != nil {
		return fmt.Errorf("embed: write chapters xml: %w", err)
	}
	args := []string{req.Path, "--chapters", chaptersPath}
	if hasTags(req) {
		if err := os.WriteFile(tagsPath, tagsXML, 0o600); err != nil {
			return fmt.Errorf("embed: write tags xml: %w", err)
		}
		args = append(args, "--tags", "global:"+tagsPath)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	logger.Debug("executing mkvpropedit", logging.String("path", req.Path), logging.Int("chapters", len(req.Chapters)))
	if err := e.run(ctx, e.binary, args...); err != nil {
		return fmt.Errorf("mkvpropedit failed: %w", err)
	}
	return nil
}

// hasTags reports whether the global tag set would be non-empty.
func hasTags(req Request) bool {
	if req.Stored.URL != "" || req.Stored.Title != "" {
		return true
	}
	for name := range req.Preserve {
		if name != metadata.TagURL && name != metadata.TagTitle {
			return true
		}
	}
	return false
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
