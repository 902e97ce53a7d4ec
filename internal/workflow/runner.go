package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mixchapters/internal/ledger"
	"mixchapters/internal/logging"
	"mixchapters/internal/notifications"
	"mixchapters/internal/services"
	"mixchapters/internal/session"
)

// Recorder persists per-file outcomes.
type Recorder interface {
	Record(ctx context.Context, entry ledger.Entry) (ledger.Entry, error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDelay sets the pause between files.
func WithDelay(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithRecorder records every outcome.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithRunnerLogger sets the runner logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNotifier pushes the batch summary and run-fatal errors.
func WithNotifier(n notifications.Service) RunnerOption {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithRecordDisabled leaves the ledger untouched, for dry runs.
func WithRecordDisabled() RunnerOption {
	return func(r *Runner) { r.noRecord = true }
}

// Runner processes a batch of files sequentially.
type Runner struct {
	processor *Processor
	recorder  Recorder
	notifier  notifications.Service
	delay     time.Duration
	noRecord  bool
	logger    *slog.Logger
	newID     func() string
	now       func() time.Time
}

// Summary is the result of a batch.
type Summary struct {
	RunID    string
	Outcomes []Outcome
	Counts   map[ledger.Status]int
}

// NewRunner builds a Runner around processor.
func NewRunner(processor *Processor, opts ...RunnerOption) *Runner {
	r := &Runner{
		processor: processor,
		logger:    logging.NewNop(),
		newID:     func() string { return uuid.NewString() },
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "runner")
	return r
}

// Run processes requests in order. It stops early when the context is
// cancelled or the catalog rejects the credentials; the returned error then
// says why, and Summary still covers the files already processed.
func (r *Runner) Run(ctx context.Context, requests []Request) (Summary, error) {
	summary := Summary{RunID: r.newID(), Counts: make(map[ledger.Status]int)}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("batch started", logging.Int("files", len(requests)))
	started := r.now()
	summary, err := r.run(ctx, logger, summary, requests)
	r.notify(ctx, logger, summary, started, err)
	return summary, err
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, summary Summary, requests []Request) (Summary, error) {
	for i, req := range requests {
		if i > 0 {
			if err := sleepWithContext(ctx, r.delay); err != nil {
				return r.finish(logger, summary), err
			}
		}
		if err := ctx.Err(); err != nil {
			return r.finish(logger, summary), err
		}

		fileCtx := services.WithRequestID(services.WithFile(ctx, req.Path), r.newID())
		out := r.processor.Process(fileCtx, req)
		summary.Outcomes = append(summary.Outcomes, out)
		summary.Counts[out.Status]++
		r.record(fileCtx, summary.RunID, out)

		if errors.Is(out.Err, session.ErrAuthentication) {
			return r.finish(logger, summary), fmt.Errorf("batch stopped: %w", out.Err)
		}
		if errors.Is(out.Err, context.Canceled) && ctx.Err() != nil {
			return r.finish(logger, summary), ctx.Err()
		}
	}
	return r.finish(logger, summary), nil
}

func (r *Runner) notify(ctx context.Context, logger *slog.Logger, summary Summary, started time.Time, runErr error) {
	if r.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	var err error
	if errors.Is(runErr, session.ErrAuthentication) {
		err = r.notifier.NotifyError(ctx, runErr, "tag run")
	} else {
		batch := notifications.Batch{
			RunID:    summary.RunID,
			Counts:   summary.Counts,
			Duration: r.now().Sub(started),
		}
		for _, out := range summary.Outcomes {
			if out.Status == ledger.StatusFailed || out.Status == ledger.StatusReview {
				batch.Problems = append(batch.Problems, out.File)
			}
		}
		err = r.notifier.NotifyBatchCompleted(ctx, batch)
	}
	if err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func (r *Runner) record(ctx context.Context, runID string, out Outcome) {
	if r.recorder == nil || r.noRecord {
		return
	}
	entry := ledger.Entry{
		RunID:    runID,
		File:     out.File,
		Status:   out.Status,
		URL:      out.URL,
		Title:    out.Title,
		Chapters: out.Chapters,
		Strategy: out.Strategy,
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
	}
	if _, err := r.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "failed to record outcome", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the ledger path is writable"),
			logging.String(logging.FieldImpact, "outcome missing from history"),
		)
	}
}

func (r *Runner) finish(logger *slog.Logger, summary Summary) Summary {
	attrs := []logging.Attr{logging.Int("processed", len(summary.Outcomes))}
	for _, status := range []ledger.Status{ledger.StatusEmbedded, ledger.StatusUnchanged, ledger.StatusSkipped, ledger.StatusReview, ledger.StatusFailed} {
		if n := summary.Counts[status]; n > 0 {
			attrs = append(attrs, logging.Int(string(status), n))
		}
	}
	logger.Info("batch finished", logging.Args(attrs...)...)
	return summary
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
