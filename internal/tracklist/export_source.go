package tracklist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"mixchapters/internal/session"
)

// ExportPath is the catalog's tracklist export endpoint.
const ExportPath = "/ajax/export_tracklist.php"

type exportEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"data"`
}

// ExportSource fetches the plain-text export of a tracklist.
type ExportSource struct {
	manager *session.Manager
}

// NewExportSource builds an ExportSource on manager.
func NewExportSource(manager *session.Manager) *ExportSource {
	return &ExportSource{manager: manager}
}

func (s *ExportSource) Strategy() Strategy { return StrategyExport }

// Fetch posts the export request with the page URL as referer.
func (s *ExportSource) Fetch(ctx context.Context, page Page) (Content, error) {
	form := url.Values{}
	form.Set("id", page.ID)
	resp, err := s.manager.PostForm(ctx, ExportPath, form, page.URL)
	if err != nil {
		return Content{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Content{}, fmt.Errorf("%w: status %d", ErrExportFailed, resp.StatusCode)
	}
	var envelope exportEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return Content{}, fmt.Errorf("%w: decode envelope: %v", ErrExportFailed, err)
	}
	if !envelope.Success {
		message := strings.TrimSpace(envelope.Message)
		if message == "" {
			message = "no reason given"
		}
		return Content{}, fmt.Errorf("%w: %s", ErrExportFailed, message)
	}
	lines := splitLines(envelope.Data.Text)
	if len(lines) == 0 {
		return Content{}, fmt.Errorf("%w: empty export", ErrExportFailed)
	}
	return Content{
		CanonicalTitle: strings.TrimSpace(envelope.Data.Title),
		Lines:          lines,
		Strategy:       StrategyExport,
	}, nil
}
