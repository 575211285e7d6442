package deps

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"medley/internal/config"
)

// Requirement defines an external dependency medley relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements returns the external tools the daemon needs, derived from the
// configuration.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Technical metadata extraction",
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Media decoding (thumbnails and previews)",
			Optional:    true,
		},
	}
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
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckOllama reports whether the configured Ollama server is reachable.
// Ollama is a service, not a binary, so it gets its own probe.
func CheckOllama(ctx context.Context, cfg *config.Config) Status {
	status := Status{
		Name:        "Ollama",
		Command:     cfg.Ollama.BaseURL,
		Description: "Auto-tagging and semantic search",
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := strings.TrimRight(cfg.Ollama.BaseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		status.Detail = fmt.Sprintf("bad base URL: %v", err)
		return status
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		status.Detail = fmt.Sprintf("unreachable: %v", err)
		return status
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		status.Detail = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return status
	}
	status.Available = true
	return status
}

// MissingRequired returns the names of required dependencies that are absent.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
