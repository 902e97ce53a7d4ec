package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mixchapters/internal/chapters"
	"mixchapters/internal/config"
	"mixchapters/internal/media/ffprobe"
)

// Global tag names carrying the stored reference.
const (
	TagURL   = "TRACKLIST_URL"
	TagTitle = "TRACKLIST_TITLE"
)

// Stored is the tracklist reference persisted in a file.
type Stored struct {
	URL   string
	Title string
}

// Present reports whether a reference was found.
func (s Stored) Present() bool {
	return strings.TrimSpace(s.URL) != ""
}

// Policy decides what a stored reference means for the next run.
type Policy string

const (
	PolicyAuto    Policy = config.PolicyAuto
	PolicyConfirm Policy = config.PolicyConfirm
	PolicyRefresh Policy = config.PolicyRefresh
)

// ParsePolicy validates a policy name.
func ParsePolicy(value string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(value))); p {
	case PolicyAuto, PolicyConfirm, PolicyRefresh:
		return p, nil
	default:
		return "", fmt.Errorf("unknown policy %q (want auto, confirm or refresh)", value)
	}
}

// Action is what the workflow does with a file's stored reference.
type Action int

const (
	// ActionSearch ignores any stored reference and searches.
	ActionSearch Action = iota
	// ActionReuse resolves the stored reference directly.
	ActionReuse
	// ActionConfirm asks the selector whether to reuse the stored reference.
	ActionConfirm
)

// Decide maps a policy and the stored reference to an action.
func Decide(policy Policy, stored Stored) Action {
	if !stored.Present() {
		return ActionSearch
	}
	switch policy {
	case PolicyAuto:
		return ActionReuse
	case PolicyConfirm:
		return ActionConfirm
	default:
		return ActionSearch
	}
}

// Snapshot is what the workflow needs to know about a media file.
type Snapshot struct {
	Path            string
	DurationMinutes int
	DurationKnown   bool
	// Chapters is nil when the file has none.
	Chapters []chapters.Existing
	Stored   Stored
	// Tags holds the other global tags so an embed can preserve them.
	Tags map[string]string
}

// derived tags ffprobe reports at format level that are not Matroska tags
var synthesizedTags = map[string]struct{}{
	"encoder":           {},
	"creation_time":     {},
	"duration":          {},
	"major_brand":       {},
	"minor_version":     {},
	"compatible_brands": {},
}

// FromProbe converts ffprobe output into a Snapshot.
func FromProbe(path string, result ffprobe.Result) (Snapshot, error) {
	snap := Snapshot{Path: path}
	snap.DurationMinutes, snap.DurationKnown = result.DurationMinutes()
	snap.Stored.URL, _ = result.Tag(TagURL)
	snap.Stored.Title, _ = result.Tag(TagTitle)

	for key, value := range result.Format.Tags {
		upper := strings.ToUpper(key)
		if upper == TagURL || upper == TagTitle {
			continue
		}
		if _, skip := synthesizedTags[strings.ToLower(key)]; skip {
			continue
		}
		if snap.Tags == nil {
			snap.Tags = make(map[string]string)
		}
		snap.Tags[upper] = value
	}

	for _, ch := range result.Chapters {
		ts, err := ch.Timestamp()
		if err != nil {
			return Snapshot{}, err
		}
		snap.Chapters = append(snap.Chapters, chapters.Existing{Timestamp: ts, Title: ch.Title()})
	}
	return snap, nil
}

// Prober reads Snapshots with ffprobe.
type Prober struct {
	binary  string
	timeout time.Duration
}

// NewProber builds a Prober. A zero timeout means no deadline beyond ctx.
func NewProber(binary string, timeout time.Duration) *Prober {
	return &Prober{binary: binary, timeout: timeout}
}

// Inspect probes path.
func (p *Prober) Inspect(ctx context.Context, path string) (Snapshot, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	result, err := ffprobe.Inspect(ctx, p.binary, path)
	if err != nil {
		return Snapshot{}, err
	}
	return FromProbe(path, result)
}
