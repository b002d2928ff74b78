// Package testrunner executes pytest against a target directory and parses
// its output into a structured summary.
package testrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout = 60 * time.Second

	// maxFailureMessage caps stored failure messages; full output is kept
	// separately in Result.Output.
	maxFailureMessage = 500
)

// Failure is one structured test failure.
type Failure struct {
	Test    string
	Message string
}

// Result summarizes a test execution.
type Result struct {
	Passed   int
	Failed   int
	Errors   int
	Skipped  int
	Total    int
	Success  bool
	Output   string
	Failures []Failure
}

// Runner executes pytest via the configured Python interpreter.
type Runner struct {
	python  string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Runner. Empty python defaults to "python3", zero timeout to 60s.
func New(python string, timeout time.Duration, logger *slog.Logger) *Runner {
	if python == "" {
		python = "python3"
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Runner{python: python, timeout: timeout, logger: logger}
}

// Run executes pytest on dir's tests directory. A missing tests directory is
// not an error: it reports Success=true with zero tests so the first
// iteration can proceed before any tests exist. Execution problems (timeout,
// missing interpreter) come back as synthetic failures, never as an error
// return.
func (r *Runner) Run(ctx context.Context, dir string) *Result {
	testsDir := filepath.Join(dir, "tests")
	if _, err := os.Stat(testsDir); os.IsNotExist(err) {
		return &Result{Success: true, Output: "no tests directory found"}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.python, "-m", "pytest", "tests", "-v", "--tb=short", "-q")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "PYTHONPATH="+dir)

	out, err := cmd.CombinedOutput()
	output := string(out)

	if ctx.Err() == context.DeadlineExceeded {
		r.logger.Warn("test run timed out", slog.String("dir", dir), slog.Duration("timeout", r.timeout))
		return &Result{
			Failed: 1, Total: 1,
			Output:   fmt.Sprintf("tests timed out after %s", r.timeout),
			Failures: []Failure{{Test: "TIMEOUT", Message: fmt.Sprintf("test execution exceeded %s limit", r.timeout)}},
		}
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// pytest exiting non-zero on failures is expected; anything else
		// (interpreter missing, exec failure) is a setup problem.
		r.logger.Error("failed to run pytest", slog.String("error", err.Error()))
		return &Result{
			Errors: 1, Total: 1,
			Output:   fmt.Sprintf("error running tests: %v", err),
			Failures: []Failure{{Test: "SETUP", Message: err.Error()}},
		}
	}

	return parseOutput(output, cmd.ProcessState.ExitCode())
}

var (
	passedRe  = regexp.MustCompile(`(?i)(\d+) passed`)
	failedRe  = regexp.MustCompile(`(?i)(\d+) failed`)
	errorRe   = regexp.MustCompile(`(?i)(\d+) error`)
	skippedRe = regexp.MustCompile(`(?i)(\d+) skipped`)

	// failureLineRe matches the start of a "FAILED tests/test_x.py::test_name - message" line.
	failureLineRe = regexp.MustCompile(`^FAILED\s+(\S+)\s*[-:]\s*(.*)$`)

	// boundaryRe matches lines that end the previous failure's message.
	boundaryRe = regexp.MustCompile(`^(FAILED|PASSED|ERROR|=====)`)
)

func parseOutput(output string, exitCode int) *Result {
	res := &Result{
		Passed:  count(passedRe, output),
		Failed:  count(failedRe, output),
		Errors:  count(errorRe, output),
		Skipped: count(skippedRe, output),
		Output:  output,
	}
	res.Total = res.Passed + res.Failed + res.Errors + res.Skipped
	res.Success = exitCode == 0 && res.Failed == 0 && res.Errors == 0

	res.Failures = parseFailures(output)
	return res
}

// parseFailures walks the output line by line, collecting each FAILED line
// and any continuation lines up to the next test status or section rule.
func parseFailures(output string) []Failure {
	var failures []Failure
	var current *Failure
	var message []string

	flush := func() {
		if current == nil {
			return
		}
		msg := strings.TrimSpace(strings.Join(message, "\n"))
		if len(msg) > maxFailureMessage {
			msg = msg[:maxFailureMessage]
		}
		current.Message = msg
		failures = append(failures, *current)
		current = nil
		message = nil
	}

	for _, line := range strings.Split(output, "\n") {
		if m := failureLineRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Failure{Test: m[1]}
			message = []string{m[2]}
			continue
		}
		if current != nil {
			if boundaryRe.MatchString(line) {
				flush()
				continue
			}
			message = append(message, line)
		}
	}
	flush()
	return failures
}

func count(re *regexp.Regexp, output string) int {
	m := re.FindStringSubmatch(output)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
