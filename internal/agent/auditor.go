package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jkaninda/rekebisha/internal/analyzer"
	"github.com/jkaninda/rekebisha/internal/parser"
	"github.com/jkaninda/rekebisha/internal/testrunner"
	"github.com/jkaninda/rekebisha/internal/validate"
)

// emptyPlan is the stub plan produced when the target holds no Python
// source at all. The run still proceeds so it can terminate cleanly.
const emptyPlan = "# Refactoring Plan\n\n## Summary\nNo Python files found in target directory."

// AuditReport is the Auditor's output: what to fix and the baseline.
type AuditReport struct {
	Files          []string
	Plan           string
	PylintBaseline float64
	// ExistingTests holds the result of any tests already present in
	// the target before remediation starts. Nil when none exist.
	ExistingTests *testrunner.Result
}

// Auditor analyzes the target directory and produces a refactoring plan.
type Auditor struct {
	base
	pylint *analyzer.Runner
	tests  *testrunner.Runner
}

// NewAuditor creates an Auditor.
func NewAuditor(deps Deps, pylint *analyzer.Runner, tests *testrunner.Runner) *Auditor {
	return &Auditor{base: newBase("auditor", deps), pylint: pylint, tests: tests}
}

// Analyze discovers source files, runs pylint to establish a baseline,
// and asks the LLM for a structured refactoring plan.
func (a *Auditor) Analyze(ctx context.Context) (*AuditReport, error) {
	files, err := a.store().ListSource("**/*.py")
	if err != nil {
		return nil, fmt.Errorf("discovering source files: %w", err)
	}

	log := a.logger()
	log.Info("discovered source files", slog.Int("count", len(files)))
	a.recordTool(ctx, "discover", a.store().Root(), fmt.Sprintf("found %d Python files", len(files)), 0, true)

	if len(files) == 0 {
		return &AuditReport{Plan: emptyPlan, PylintBaseline: 10.0}, nil
	}

	existing := a.runExistingTests(ctx)

	reports := make(map[string]*analyzer.Report, len(files))
	for _, file := range files {
		abs, err := a.store().Resolve(file)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", file, err)
		}
		rep := a.pylint.Analyze(ctx, abs)
		reports[file] = rep
		a.recordTool(ctx, "pylint", file, fmt.Sprintf("score %.2f, %d issues", rep.Score, len(rep.Issues)), 0, true)
	}
	baseline := averageScore(files, reports)
	log.Info("pylint baseline established", slog.Float64("score", baseline))

	contents := make(map[string]string, len(files))
	for _, file := range files {
		content, err := a.store().Read(file)
		if err != nil {
			contents[file] = fmt.Sprintf("ERROR reading file: %v", err)
			continue
		}
		contents[file] = content
	}

	prompt := a.buildPrompt(files, reports, contents, baseline, existing)
	response, err := a.callLLM(ctx, "audit", 0, auditorSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	result := validate.PlanResponse(response)
	for _, w := range result.Warnings {
		log.Warn("plan quality issue", slog.String("warning", w))
	}
	if !result.Valid {
		return nil, fmt.Errorf("auditor produced an unusable plan: %s", strings.Join(result.Errors, "; "))
	}

	return &AuditReport{
		Files:          files,
		Plan:           response,
		PylintBaseline: baseline,
		ExistingTests:  existing,
	}, nil
}

// runExistingTests captures the pass/fail baseline of any tests that
// shipped with the target. Returns nil when there is nothing to run.
func (a *Auditor) runExistingTests(ctx context.Context) *testrunner.Result {
	if !a.store().Exists("tests") {
		return nil
	}
	testFiles, err := a.store().List("tests/test_*.py")
	if err != nil || len(testFiles) == 0 {
		return nil
	}

	a.logger().Info("running existing tests for baseline", slog.Int("test_files", len(testFiles)))
	result := a.tests.Run(ctx, a.store().Root())
	a.recordTool(ctx, "existing_tests", "tests",
		fmt.Sprintf("%d passed, %d failed, %d errors", result.Passed, result.Failed, result.Errors), 0, true)
	return result
}

func (a *Auditor) buildPrompt(files []string, reports map[string]*analyzer.Report, contents map[string]string, baseline float64, existing *testrunner.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Pylint Baseline: %.2f/10\n\n", baseline)

	if existing != nil {
		fmt.Fprintf(&b, "# Existing Tests\n%d passed, %d failed, %d errors out of %d\n\n",
			existing.Passed, existing.Failed, existing.Errors, existing.Total)
	}

	b.WriteString("# Pylint Issues\n")
	for _, file := range files {
		rep := reports[file]
		fmt.Fprintf(&b, "## %s (score %.2f/10)\n", file, rep.Score)
		if len(rep.Issues) == 0 {
			b.WriteString("No issues reported.\n")
		}
		for _, issue := range rep.Issues {
			fmt.Fprintf(&b, "- line %d: [%s] %s (%s)\n", issue.Line, issue.Code, issue.Message, issue.Severity)
		}
		b.WriteString("\n")
	}

	b.WriteString("# File Contents\n")
	for _, file := range files {
		fmt.Fprintf(&b, "## File: %s\n```python\n%s\n```\n\n", file, parser.AddLineNumbers(contents[file]))
	}

	b.WriteString("# Instructions\nProduce the refactoring plan in the required Markdown format.\n")
	return b.String()
}

func averageScore(files []string, reports map[string]*analyzer.Report) float64 {
	if len(files) == 0 {
		return 10.0
	}
	var sum float64
	for _, file := range files {
		sum += reports[file].Score
	}
	return sum / float64(len(files))
}
