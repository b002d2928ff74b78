package agent

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/jkaninda/rekebisha/internal/classifier"
	"github.com/jkaninda/rekebisha/internal/parser"
	"github.com/jkaninda/rekebisha/internal/testrunner"
	"github.com/jkaninda/rekebisha/internal/validate"
)

// noTestsCollected is appended to the error logs when a validation run
// collects zero tests: the generated test files were deleted or no
// longer import cleanly, which the loop treats as unrecoverable.
const noTestsCollected = "ERROR: No tests were collected. Test files may have import errors or were deleted."

// JudgeReport is the Judge's output for either mode.
type JudgeReport struct {
	GeneratedTests []string
	Result         *testrunner.Result
	ErrorLogs      []string
}

// Judge generates pytest tests for the plan and validates fixes by
// running them.
type Judge struct {
	base
	tests *testrunner.Runner
}

// NewJudge creates a Judge.
func NewJudge(deps Deps, tests *testrunner.Runner) *Judge {
	return &Judge{base: newBase("judge", deps), tests: tests}
}

// GenerateTests asks the LLM for pytest tests covering the plan, writes
// them under tests/, and runs them once. On buggy code the fresh tests
// are expected to fail; their failures seed the Fixer's error logs.
func (j *Judge) GenerateTests(ctx context.Context, plan string, files []string, iteration int) (*JudgeReport, error) {
	log := j.logger()

	contents := make(map[string]string, len(files))
	for _, file := range files {
		content, err := j.store().Read(file)
		if err != nil {
			contents[file] = fmt.Sprintf("ERROR: %v", err)
			continue
		}
		contents[file] = content
	}

	prompt := j.buildGeneratePrompt(plan, files, contents)
	response, err := j.callLLM(ctx, "generate_tests", iteration, judgeGeneratePrompt, prompt)
	if err != nil {
		return nil, err
	}

	result := validate.TestResponse(response)
	for _, w := range result.Warnings {
		log.Warn("test generation quality issue", slog.String("warning", w))
	}

	var generated []string
	for _, block := range parser.Extract(response, nil) {
		target := block.Path
		if !strings.HasPrefix(target, "tests/") {
			target = "tests/" + path.Base(target)
		}
		if err := j.store().Write(target, block.Content); err != nil {
			log.Error("failed to write test file", slog.String("path", target), slog.Any("error", err))
			j.recordTool(ctx, "write_test", target, err.Error(), iteration, false)
			continue
		}
		generated = append(generated, target)
		log.Info("created test file", slog.String("path", target))
		j.recordTool(ctx, "write_test", target, fmt.Sprintf("%d bytes", len(block.Content)), iteration, true)
	}

	if err := j.ensureTestsInit(); err != nil {
		log.Warn("could not create tests/__init__.py", slog.Any("error", err))
	}

	run := j.runTests(ctx, iteration)
	return &JudgeReport{
		GeneratedTests: generated,
		Result:         run,
		ErrorLogs:      classifier.ErrorLogs(run),
	}, nil
}

// Validate runs the test suite and extracts structured error logs for
// the Fixer. A run that collects zero tests gets an explicit log entry.
func (j *Judge) Validate(ctx context.Context, iteration int) (*JudgeReport, error) {
	log := j.logger()
	log.Info("running tests to validate fixes")

	run := j.runTests(ctx, iteration)
	log.Info("test execution complete",
		slog.Int("passed", run.Passed),
		slog.Int("failed", run.Failed),
		slog.Int("errors", run.Errors))

	errorLogs := classifier.ErrorLogs(run)
	if run.Total == 0 && !run.Success {
		errorLogs = append(errorLogs, noTestsCollected)
	}

	return &JudgeReport{Result: run, ErrorLogs: errorLogs}, nil
}

func (j *Judge) runTests(ctx context.Context, iteration int) *testrunner.Result {
	run := j.tests.Run(ctx, j.store().Root())
	j.recordTool(ctx, "pytest", "tests",
		fmt.Sprintf("%d passed, %d failed, %d errors, %d skipped", run.Passed, run.Failed, run.Errors, run.Skipped),
		iteration, run.Success)

	if m := j.deps.Metrics; m != nil {
		m.TestsRunTotal.WithLabelValues("passed").Add(float64(run.Passed))
		m.TestsRunTotal.WithLabelValues("failed").Add(float64(run.Failed))
		m.TestsRunTotal.WithLabelValues("error").Add(float64(run.Errors))
		m.TestsRunTotal.WithLabelValues("skipped").Add(float64(run.Skipped))
	}
	return run
}

func (j *Judge) ensureTestsInit() error {
	if j.store().Exists("tests/__init__.py") {
		return nil
	}
	return j.store().Write("tests/__init__.py", "")
}

// moduleName converts a root-relative source path to the Python module
// path tests must import. "src/models.py" becomes "src.models".
func moduleName(file string) string {
	p := strings.ReplaceAll(file, "\\", "/")
	p = strings.TrimSuffix(p, ".py")
	return strings.ReplaceAll(p, "/", ".")
}

func (j *Judge) buildGeneratePrompt(plan string, files []string, contents map[string]string) string {
	var b strings.Builder
	b.WriteString("# Refactoring Plan (Issues to Test)\n")
	b.WriteString(plan)
	b.WriteString("\n\n# Source Files to Test\n\n")
	b.WriteString("IMPORTANT: Use these module names for imports (NOT the full file path):\n")

	for _, file := range files {
		fmt.Fprintf(&b, "  - %s -> import from `%s`\n", file, moduleName(file))
	}
	b.WriteString("\n")

	for _, file := range files {
		fmt.Fprintf(&b, "## File: %s\n", file)
		fmt.Fprintf(&b, "## Module for imports: `%s`\n", moduleName(file))
		fmt.Fprintf(&b, "```python\n%s\n```\n\n", parser.AddLineNumbers(contents[file]))
	}

	b.WriteString("# Instructions\n")
	b.WriteString("Generate pytest tests that:\n")
	b.WriteString("1. Test the CORRECT expected behavior (based on function names)\n")
	b.WriteString("2. Will FAIL on the buggy code shown above\n")
	b.WriteString("3. Will PASS once the code is fixed correctly\n\n")
	b.WriteString("CRITICAL: Use the MODULE NAMES shown above for imports!\n")
	b.WriteString("Example: `from cart import Product` NOT `from sandbox.cart import Product`\n\n")
	b.WriteString("Focus especially on testing BUSINESS LOGIC, not just error handling.\n")
	return b.String()
}
