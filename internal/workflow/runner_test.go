package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"mixchapters/internal/ledger"
	"mixchapters/internal/metadata"
	"mixchapters/internal/notifications"
	"mixchapters/internal/session"
	"mixchapters/internal/testsupport"
)

func TestRunnerRecordsOutcomes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	h := newHarness()
	runner := NewRunner(h.processor(Settings{Policy: metadata.PolicyAuto}), WithRecorder(store))
	summary, err := runner.Run(context.Background(), []Request{
		{Path: mediaPath},
		{Path: "/music/missing.mka"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RunID == "" || len(summary.Outcomes) != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Counts[ledger.StatusEmbedded] != 1 || summary.Counts[ledger.StatusFailed] != 1 {
		t.Fatalf("counts = %v", summary.Counts)
	}

	entries, err := store.Recent(context.Background(), ledger.Filter{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	byFile := map[string]ledger.Entry{}
	for _, e := range entries {
		byFile[e.File] = e
	}
	if e := byFile[mediaPath]; e.Status != ledger.StatusEmbedded || e.Chapters != 3 || e.Strategy != "export" {
		t.Fatalf("embedded entry = %+v", e)
	}
	if e := byFile["/music/missing.mka"]; e.Status != ledger.StatusFailed || e.Error == "" {
		t.Fatalf("failed entry = %+v", e)
	}
}

func TestRunnerDryRunLeavesLedgerEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	h := newHarness()
	runner := NewRunner(h.processor(Settings{Policy: metadata.PolicyAuto}), WithRecorder(store), WithRecordDisabled())
	if _, err := runner.Run(context.Background(), []Request{{Path: mediaPath}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries, err := store.Recent(context.Background(), ledger.Filter{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("dry run recorded %d entries", len(entries))
	}
}

func TestRunnerStopsOnAuthenticationFailure(t *testing.T) {
	h := newHarness()
	h.searcher.err = session.ErrAuthentication
	runner := NewRunner(h.processor(Settings{Policy: metadata.PolicyAuto}))
	summary, err := runner.Run(context.Background(), []Request{{Path: mediaPath}, {Path: mediaPath}})
	if !errors.Is(err, session.ErrAuthentication) {
		t.Fatalf("err = %v", err)
	}
	if len(summary.Outcomes) != 1 || h.searcher.calls != 1 {
		t.Fatalf("batch should stop after the first file: %d outcomes, %d searches", len(summary.Outcomes), h.searcher.calls)
	}
}

func TestRunnerHonoursCancellationDuringDelay(t *testing.T) {
	h := newHarness()
	runner := NewRunner(h.processor(Settings{Policy: metadata.PolicyAuto}), WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	summary, err := runner.Run(ctx, []Request{{Path: mediaPath}, {Path: mediaPath}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("delay ignored cancellation")
	}
	if len(summary.Outcomes) != 1 {
		t.Fatalf("outcomes = %d", len(summary.Outcomes))
	}
}

type recordingNotifier struct {
	batches []notifications.Batch
	errors  []error
}

func (n *recordingNotifier) NotifyBatchCompleted(_ context.Context, batch notifications.Batch) error {
	n.batches = append(n.batches, batch)
	return nil
}

func (n *recordingNotifier) NotifyError(_ context.Context, err error, _ string) error {
	n.errors = append(n.errors, err)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func TestRunnerNotifiesBatchSummary(t *testing.T) {
	h := newHarness()
	notifier := &recordingNotifier{}
	runner := NewRunner(h.processor(Settings{Policy: metadata.PolicyAuto}), WithNotifier(notifier))
	summary, err := runner.Run(context.Background(), []Request{{Path: mediaPath}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(notifier.batches) != 1 || len(notifier.errors) != 0 {
		t.Fatalf("expected one batch notification, got %d batches %d errors", len(notifier.batches), len(notifier.errors))
	}
	batch := notifier.batches[0]
	if batch.RunID != summary.RunID || batch.Total() != 1 || len(batch.Problems) != 0 {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

func TestRunnerNotifiesAuthenticationFailure(t *testing.T) {
	h := newHarness()
	h.searcher.err = session.ErrAuthentication
	notifier := &recordingNotifier{}
	runner := NewRunner(h.processor(Settings{Policy: metadata.PolicyAuto}), WithNotifier(notifier))
	if _, err := runner.Run(context.Background(), []Request{{Path: mediaPath}}); err == nil {
		t.Fatal("expected run error")
	}
	if len(notifier.errors) != 1 || len(notifier.batches) != 0 {
		t.Fatalf("expected one error notification, got %d errors %d batches", len(notifier.errors), len(notifier.batches))
	}
	if !errors.Is(notifier.errors[0], session.ErrAuthentication) {
		t.Fatalf("notified error = %v", notifier.errors[0])
	}
}
