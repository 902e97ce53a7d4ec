package services

import (
	"errors"
	"fmt"
	"strings"

	"mixchapters/internal/ledger"
)

// Failure markers. Every per-file error carries exactly one of them so the
// batch can decide what to record and what to tell the operator.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

type failureClass struct {
	marker error
	status ledger.Status
	hint   string
}

// Order matters: the first marker found in the chain wins.
var failureClasses = []failureClass{
	{ErrConfiguration, ledger.StatusReview, "check catalog credentials and config.toml, then re-run the file"},
	{ErrNotFound, ledger.StatusReview, "re-run with --query naming the artist and event"},
	{ErrValidation, ledger.StatusReview, "pick a different tracklist or supply chapters with --from-file"},
	{ErrExternalTool, ledger.StatusFailed, "check ffprobe and mkvpropedit are installed and the file is a Matroska container"},
	{ErrTransient, ledger.StatusFailed, "retry later; the catalog may be rate limiting this account"},
}

// Wrap builds "<marker>: <stage>: <operation>: <message>: <cause>", keeping both
// marker and cause reachable through errors.Is. A nil marker means transient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinDetail(stage, operation, message)
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// FailureStatus maps a per-file error to the ledger status recorded for it.
// Errors that need a human decision become review; the rest are failures.
func FailureStatus(err error) ledger.Status {
	if class, ok := classify(err); ok {
		return class.status
	}
	return ledger.StatusFailed
}

// Hint suggests the operator's next step for err.
func Hint(err error) string {
	if class, ok := classify(err); ok {
		return class.hint
	}
	return "check logs for details"
}

func classify(err error) (failureClass, bool) {
	if err == nil {
		return failureClass{}, false
	}
	for _, class := range failureClasses {
		if errors.Is(err, class.marker) {
			return class, true
		}
	}
	return failureClass{}, false
}

func joinDetail(parts ...string) string {
	kept := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "service failure"
	}
	return strings.Join(kept, ": ")
}
