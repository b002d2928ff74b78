// Package analyzer runs pylint against files and extracts a quality score.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

const defaultTimeout = 30 * time.Second

// Issue is one pylint finding.
type Issue struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"type"`
	Code     string `json:"message-id"`
	Message  string `json:"message"`
	Path     string `json:"path"`
}

// Report is the outcome of analyzing one path.
type Report struct {
	Score     float64 // 0.0 to 10.0.
	Issues    []Issue
	RawOutput string
}

// Runner executes pylint via the configured Python interpreter.
type Runner struct {
	python  string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Runner. Empty python defaults to "python3", zero timeout to 30s.
func New(python string, timeout time.Duration, logger *slog.Logger) *Runner {
	if python == "" {
		python = "python3"
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Runner{python: python, timeout: timeout, logger: logger}
}

// Analyze runs pylint on path. Failures degrade instead of erroring: a
// timeout or missing tool yields score 0 with one synthetic issue, and a
// clean run with no findings yields 10.0.
func (r *Runner) Analyze(ctx context.Context, path string) *Report {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// JSON pass for structured issues.
	jsonOut, jsonErr := r.run(ctx, path, "--output-format=json")
	if ctx.Err() == context.DeadlineExceeded {
		return degraded(fmt.Sprintf("pylint timed out after %s", r.timeout))
	}
	if jsonErr != nil {
		r.logger.Warn("pylint unavailable", slog.String("error", jsonErr.Error()))
		return degraded(fmt.Sprintf("pylint error: %v", jsonErr))
	}

	issues := parseIssues(jsonOut)

	// Text pass for the score line.
	textOut, textErr := r.run(ctx, path, "--score=y")
	if ctx.Err() == context.DeadlineExceeded {
		return degraded(fmt.Sprintf("pylint timed out after %s", r.timeout))
	}
	if textErr != nil {
		return degraded(fmt.Sprintf("pylint error: %v", textErr))
	}

	score := ExtractScore(textOut)
	if score == 0 && len(issues) == 0 {
		score = 10.0
	}

	return &Report{Score: score, Issues: issues, RawOutput: textOut}
}

// run executes one pylint invocation, tolerating the non-zero exit codes
// pylint uses to signal findings.
func (r *Runner) run(ctx context.Context, path string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.python, append([]string{"-m", "pylint", path}, args...)...)
	cmd.Env = os.Environ()
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", err
	}
	return string(out), nil
}

func parseIssues(output string) []Issue {
	var issues []Issue
	if err := json.Unmarshal([]byte(output), &issues); err == nil {
		return issues
	}
	// Pylint sometimes prefixes the JSON array with noise; salvage it.
	if m := regexp.MustCompile(`(?s)\[.*\]`).FindString(output); m != "" {
		if err := json.Unmarshal([]byte(m), &issues); err == nil {
			return issues
		}
	}
	return nil
}

func degraded(message string) *Report {
	return &Report{
		Score:     0,
		Issues:    []Issue{{Severity: "fatal", Message: message}},
		RawOutput: message,
	}
}

// scorePatterns match the rating line, most specific first. Negative scores
// are possible and clamped.
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Your code has been rated at (-?\d+\.?\d*)/10`),
	regexp.MustCompile(`(?i)rated at (-?\d+\.?\d*)/10`),
	regexp.MustCompile(`(?i)score[:\s]+(-?\d+\.?\d*)/10`),
	regexp.MustCompile(`(-?\d+\.?\d*)/10`),
}

// ExtractScore pulls the score out of pylint text output, clamped to [0, 10].
// No recognizable score returns 0.
func ExtractScore(output string) float64 {
	for _, p := range scorePatterns {
		m := p.FindStringSubmatch(output)
		if m == nil {
			continue
		}
		score, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return min(10.0, max(0.0, score))
	}
	return 0
}
