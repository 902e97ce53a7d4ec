// Package deps reports whether the external media tools are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary mixchapters relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of looking up one Requirement. Path holds the
// resolved executable when Available is true; Detail explains a miss.
type Status struct {
	Requirement
	Available bool
	Path      string
	Detail    string
}

// Satisfied reports whether the dependency is present or not required.
func (s Status) Satisfied() bool {
	return s.Available || s.Optional
}

// MediaRequirements lists the probe and edit tools. The editor is optional
// for dry runs, which never invoke it.
func MediaRequirements(ffprobe, mkvpropedit string, dryRun bool) []Requirement {
	return []Requirement{
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Reads duration, chapters and tags",
		},
		{
			Name:        "mkvpropedit",
			Command:     mkvpropedit,
			Description: "Writes chapters and tags into Matroska files",
			Optional:    dryRun,
		},
	}
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		req.Command = strings.TrimSpace(req.Command)
		req.Description = strings.TrimSpace(req.Description)
		results[i] = lookup(req)
	}
	return results
}

func lookup(req Requirement) Status {
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Satisfied() {
			out = append(out, s)
		}
	}
	return out
}
