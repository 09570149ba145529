// Package deps reports availability of the external binaries the extraction
// pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"adscope/internal/config"
)

// Canonical requirement names used for lookups in check results.
const (
	NameFFprobe   = "FFprobe"
	NameFFmpeg    = "FFmpeg"
	NameTesseract = "Tesseract"
)

// Requirement defines an external dependency adscope relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists the external tools for the given configuration.
// Video support needs ffprobe and ffmpeg; tesseract matters only when OCR is
// enabled, and even then its absence degrades OCR rather than failing.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: NameFFprobe, Command: cfg.Tools.FFprobe, Description: "video container inspection"},
		{Name: NameFFmpeg, Command: cfg.Tools.FFmpeg, Description: "video frame extraction"},
	}
	reqs = append(reqs, Requirement{
		Name:        NameTesseract,
		Command:     cfg.Tools.Tesseract,
		Description: "on-frame text recognition",
		Optional:    true,
	})
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Available reports whether the named requirement is available in results.
func Available(results []Status, name string) bool {
	for _, status := range results {
		if strings.EqualFold(status.Name, name) {
			return status.Available
		}
	}
	return false
}
