package agent

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/jkaninda/rekebisha/internal/analyzer"
	"github.com/jkaninda/rekebisha/internal/ledger"
	"github.com/jkaninda/rekebisha/internal/parser"
	"github.com/jkaninda/rekebisha/internal/validate"
)

// FixReport is the Fixer's output for one iteration.
type FixReport struct {
	FilesModified []string
	PylintCurrent float64
}

// Fixer applies code fixes based on the Auditor's plan and the Judge's
// error logs.
type Fixer struct {
	base
	pylint *analyzer.Runner
}

// NewFixer creates a Fixer.
func NewFixer(deps Deps, pylint *analyzer.Runner) *Fixer {
	return &Fixer{base: newBase("fixer", deps), pylint: pylint}
}

// Fix asks the LLM for complete fixed files, validates each returned
// block, and writes the valid ones into the target. Every applied fix
// is recorded in the attempt ledger so later iterations can see it.
func (f *Fixer) Fix(ctx context.Context, plan string, files []string, errorLogs []string, led *ledger.Ledger, iteration int) (*FixReport, error) {
	log := f.logger()

	contents := make(map[string]string, len(files))
	for _, file := range files {
		content, err := f.store().Read(file)
		if err != nil {
			contents[file] = fmt.Sprintf("ERROR reading file: %v", err)
			continue
		}
		contents[file] = content
	}

	action := "fix"
	if len(errorLogs) > 0 {
		action = "debug"
		log.Info("analyzing error logs", slog.Int("count", len(errorLogs)))
	} else {
		log.Info("analyzing refactoring plan")
	}

	prompt := f.buildPrompt(plan, files, contents, errorLogs, led)
	response, err := f.callLLM(ctx, action, iteration, fixerSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	blocks := parser.Extract(response, files)
	if len(blocks) == 0 {
		log.Warn("no file modifications found in response")
	}

	var modified []string
	for _, block := range blocks {
		if isTestFile(block.Path) {
			log.Warn("skipped test file", slog.String("path", block.Path))
			f.rejectFix("test_file")
			continue
		}

		if result := validate.Syntax(block.Content, block.Path); !result.Valid {
			log.Warn("rejected fix with invalid syntax",
				slog.String("path", block.Path),
				slog.String("error", strings.Join(result.Errors, "; ")))
			f.rejectFix("syntax")
			f.recordTool(ctx, "write", block.Path, "rejected: "+strings.Join(result.Errors, "; "), iteration, false)
			continue
		}

		if err := f.store().Write(block.Path, block.Content); err != nil {
			log.Error("failed to write fix", slog.String("path", block.Path), slog.Any("error", err))
			f.recordTool(ctx, "write", block.Path, err.Error(), iteration, false)
			continue
		}

		attempt := led.Record(block.Path, block.Content, iteration)
		modified = append(modified, block.Path)
		log.Info("updated file",
			slog.String("path", block.Path),
			slog.Int("bytes", len(block.Content)),
			slog.String("fingerprint", attempt.Fingerprint))
		f.recordTool(ctx, "write", block.Path, fmt.Sprintf("%d bytes, fingerprint %s", len(block.Content), attempt.Fingerprint), iteration, true)
		if m := f.deps.Metrics; m != nil {
			m.FixesApplied.Inc()
		}
	}

	current := f.currentScore(ctx, files)
	if m := f.deps.Metrics; m != nil {
		m.PylintScore.Set(current)
	}

	return &FixReport{FilesModified: modified, PylintCurrent: current}, nil
}

func (f *Fixer) rejectFix(reason string) {
	if m := f.deps.Metrics; m != nil {
		m.FixesRejected.WithLabelValues(reason).Inc()
	}
}

func (f *Fixer) buildPrompt(plan string, files []string, contents map[string]string, errorLogs []string, led *ledger.Ledger) string {
	var b strings.Builder
	b.WriteString("# Refactoring Plan\n")
	b.WriteString(plan)
	b.WriteString("\n\n# Current File Contents\n")

	for _, file := range files {
		fmt.Fprintf(&b, "## File: %s\n```python\n%s\n```\n\n", file, parser.AddLineNumbers(contents[file]))
	}

	if len(errorLogs) > 0 {
		b.WriteString("# Previous Error Logs (MUST FIX THESE)\n")
		logs := errorLogs
		if len(logs) > 3 {
			logs = logs[len(logs)-3:]
		}
		for _, entry := range logs {
			b.WriteString(entry)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if recent := led.Recent(5); len(recent) > 0 {
		b.WriteString("# Previous Fix Attempts (DO NOT REPEAT)\n")
		for _, attempt := range recent {
			fmt.Fprintf(&b, "- Iteration %d: %s (%s)\n", attempt.Iteration, attempt.Issue, attempt.File)
		}
		b.WriteString("\n")
	}

	b.WriteString("# Instructions\n")
	b.WriteString("Fix all issues in the files above.\n")
	b.WriteString("Output COMPLETE fixed files using the format specified.\n")
	b.WriteString("Do NOT include line number prefixes in your output.\n")
	return b.String()
}

func (f *Fixer) currentScore(ctx context.Context, files []string) float64 {
	if len(files) == 0 {
		return 10.0
	}
	var sum float64
	for _, file := range files {
		abs, err := f.store().Resolve(file)
		if err != nil {
			continue
		}
		rep := f.pylint.Analyze(ctx, abs)
		sum += rep.Score
	}
	return sum / float64(len(files))
}

// isTestFile reports whether a path points at test code. The Fixer
// must never touch tests; only the Judge writes them.
func isTestFile(p string) bool {
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "tests/") || strings.Contains(p, "/tests/") {
		return true
	}
	return strings.HasPrefix(path.Base(p), "test_")
}
