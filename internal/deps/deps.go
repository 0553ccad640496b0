package deps

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external dependency hardsub relies on.
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

// Options selects which environment-dependent checks run.
type Options struct {
	PythonBin     string // interpreter used for the faster-whisper engine
	WhisperCppURL string // base URL of a whisper.cpp server, if configured
	HaveOpenAIKey bool
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

// CheckPython verifies the interpreter exists and can import the
// faster_whisper package. Reports the package version when it can.
func CheckPython(ctx context.Context, pythonBin string) Status {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	status := Status{
		Name:        "faster-whisper",
		Command:     pythonBin,
		Description: "Python package backing the default transcription engine",
	}
	if _, err := exec.LookPath(pythonBin); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", pythonBin)
		return status
	}
	cmd := exec.CommandContext(ctx, pythonBin, "-c", "import faster_whisper; print(faster_whisper.__version__)")
	out, err := cmd.Output()
	if err != nil {
		status.Detail = "faster_whisper package not importable"
		return status
	}
	status.Available = true
	status.Detail = "version " + strings.TrimSpace(string(out))
	return status
}

// CheckServer probes a whisper.cpp server. Any HTTP response counts as
// reachable; only connection failures mark it unavailable.
func CheckServer(ctx context.Context, baseURL string) Status {
	status := Status{
		Name:        "whisper.cpp server",
		Description: "Remote transcription engine",
		Optional:    true,
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/", nil)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		status.Detail = fmt.Sprintf("unreachable: %v", err)
		return status
	}
	resp.Body.Close()
	status.Available = true
	status.Detail = baseURL
	return status
}

// CheckAll runs every dependency check relevant to the given options.
func CheckAll(ctx context.Context, opts Options) []Status {
	statuses := CheckBinaries([]Requirement{
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Required for audio extraction and subtitle burn-in",
		},
		{
			Name:        "FFprobe",
			Command:     "ffprobe",
			Description: "Required for media inspection",
		},
	})
	statuses = append(statuses, CheckPython(ctx, opts.PythonBin))
	if opts.WhisperCppURL != "" {
		statuses = append(statuses, CheckServer(ctx, opts.WhisperCppURL))
	}

	openai := Status{
		Name:        "OpenAI API",
		Description: "Cloud transcription engine",
		Optional:    true,
		Available:   opts.HaveOpenAIKey,
	}
	if opts.HaveOpenAIKey {
		openai.Detail = "api key configured"
	} else {
		openai.Detail = "api key not set"
	}
	return append(statuses, openai)
}
