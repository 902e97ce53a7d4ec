package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"mixchapters/internal/config"
	"mixchapters/internal/ledger"
)

const (
	userAgent       = "mixchapters/0.1"
	maxProblemFiles = 5
)

// Batch summarises one tag run.
type Batch struct {
	RunID    string
	Counts   map[ledger.Status]int
	Duration time.Duration
	// Problems lists files that failed or need review.
	Problems []string
}

// Total is the number of files the batch processed.
func (b Batch) Total() int {
	total := 0
	for _, n := range b.Counts {
		total += n
	}
	return total
}

func (b Batch) problemCount() int {
	return b.Counts[ledger.StatusFailed] + b.Counts[ledger.StatusReview]
}

// Service is the notification surface used by the batch runner.
type Service interface {
	NotifyBatchCompleted(ctx context.Context, batch Batch) error
	NotifyError(ctx context.Context, err error, label string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notify.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notify.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		onlyOnProblems: cfg.Notify.OnlyOnProblems,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	onlyOnProblems bool
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, batch Batch) error {
	problems := batch.problemCount()
	if problems == 0 && n.onlyOnProblems {
		return nil
	}
	if batch.Total() == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d file(s) in %s: ", batch.Total(), formatDuration(batch.Duration))
	parts := make([]string, 0, 5)
	for _, status := range []ledger.Status{ledger.StatusEmbedded, ledger.StatusUnchanged, ledger.StatusSkipped, ledger.StatusReview, ledger.StatusFailed} {
		if count := batch.Counts[status]; count > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", count, status))
		}
	}
	b.WriteString(strings.Join(parts, ", "))
	for i, file := range batch.Problems {
		if i == maxProblemFiles {
			fmt.Fprintf(&b, "\n... and %d more", len(batch.Problems)-maxProblemFiles)
			break
		}
		b.WriteString("\n- ")
		b.WriteString(filepath.Base(file))
	}

	data := payload{
		title:   "mixchapters - Batch Complete",
		message: b.String(),
		tags:    []string{"mixchapters", "batch", "completed"},
	}
	if problems > 0 {
		data.title = "mixchapters - Batch Needs Attention"
		data.tags = []string{"mixchapters", "batch", "review"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, label string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if label = strings.TrimSpace(label); label != "" {
		builder.WriteString(" during ")
		builder.WriteString(label)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	data := payload{
		title:    "mixchapters - Error",
		message:  builder.String(),
		tags:     []string{"mixchapters", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "mixchapters - Test",
		message:  "Notification system test",
		tags:     []string{"mixchapters", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) NotifyBatchCompleted(context.Context, Batch) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error  { return nil }
func (noopService) TestNotification(context.Context) error             { return nil }
