// Package validate checks model output before it is applied to the sandbox.
//
// Syntax checking parses extracted content as a Python syntax tree via
// tree-sitter; response-level validators verify that a full reply carries
// extractable, well-formed file blocks. Warnings flag suspicious but usable
// output; only a missing block, empty input, or a syntax error makes a
// result invalid.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/jkaninda/rekebisha/internal/parser"
)

// Result of validating a piece of model output.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func invalid(errs ...string) Result {
	return Result{Valid: false, Errors: errs}
}

// artifacts that should never survive into cleaned code.
var artifactChecks = []struct {
	re  *regexp.Regexp
	msg string
}{
	{regexp.MustCompile("(?m)^\\s*```"), "code fence markers found in content"},
	{regexp.MustCompile(`(?m)###?\s*FILE:`), "file marker headers found in content"},
	{regexp.MustCompile(`(?m)^\s*\d+\s*\|`), "line number prefixes found in content"},
}

// Syntax validates that code parses as Python. Empty input is an error; a
// parse failure reports the filename and 1-based line of the first bad node.
// Residual artifacts are warnings, not errors.
func Syntax(code, filename string) Result {
	if strings.TrimSpace(code) == "" {
		return invalid("empty code")
	}

	res := Result{Valid: true}

	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, []byte(code))
	if err != nil {
		return invalid(fmt.Sprintf("parse error in %s: %v", filename, err))
	}
	defer tree.Close()

	if node := firstErrorNode(tree.RootNode()); node != nil {
		line := int(node.StartPoint().Row) + 1
		what := "syntax error"
		if node.IsMissing() {
			what = fmt.Sprintf("missing %s", node.Type())
		}
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("%s in %s (line %d)", what, filename, line))
	}

	for _, check := range artifactChecks {
		if check.re.MatchString(code) {
			res.Warnings = append(res.Warnings, check.msg)
		}
	}

	return res
}

// firstErrorNode walks the tree depth-first for the first ERROR or MISSING
// node. Depth is bounded to keep heavily malformed input cheap.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	return findError(node, 0)
}

func findError(node *sitter.Node, depth int) *sitter.Node {
	if depth > 1000 {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := findError(node.Child(i), depth+1); found != nil {
			return found
		}
	}
	return nil
}

// FixResponse validates a full fixer reply: it must contain at least one
// extractable file block, and every block must be valid Python. Expected
// files missing from the reply are a warning only.
func FixResponse(response string, expectedFiles []string) Result {
	if strings.TrimSpace(response) == "" {
		return invalid("empty response")
	}

	blocks := parser.Extract(response, nil)
	if len(blocks) == 0 {
		return invalid("no file blocks found in response")
	}

	res := Result{Valid: true}
	found := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		found[b.Path] = true
		sub := Syntax(b.Content, b.Path)
		res.Errors = append(res.Errors, sub.Errors...)
		res.Warnings = append(res.Warnings, sub.Warnings...)
	}

	var missing []string
	for _, f := range expectedFiles {
		if !found[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("expected files not in response: %s", strings.Join(missing, ", ")))
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// TestResponse validates a test-generation reply. Naming and convention
// issues are warnings; they never flip validity.
func TestResponse(response string) Result {
	if strings.TrimSpace(response) == "" {
		return invalid("empty response")
	}

	blocks := parser.Extract(response, nil)
	if len(blocks) == 0 {
		return invalid("no test file blocks found in response")
	}

	res := Result{Valid: true}
	for _, b := range blocks {
		base := b.Path
		if i := strings.LastIndexByte(base, '/'); i >= 0 {
			base = base[i+1:]
		}
		if !strings.HasPrefix(base, "test_") {
			res.Warnings = append(res.Warnings, fmt.Sprintf("test file %q doesn't start with test_", b.Path))
		}

		sub := Syntax(b.Content, b.Path)
		res.Errors = append(res.Errors, sub.Errors...)
		res.Warnings = append(res.Warnings, sub.Warnings...)

		if !strings.Contains(b.Content, "def test_") {
			res.Warnings = append(res.Warnings, fmt.Sprintf("no test functions found in %s", b.Path))
		}
		if strings.Contains(b.Content, "@pytest") && !strings.Contains(b.Content, "import pytest") {
			res.Warnings = append(res.Warnings, fmt.Sprintf("pytest fixtures used but pytest not imported in %s", b.Path))
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// planSections are headers a useful remediation plan tends to carry.
var planSections = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^##?\s*(Summary|Overview)`),
	regexp.MustCompile(`(?im)^##?\s*(Issue|Bug|Problem)`),
	regexp.MustCompile(`(?im)^##?\s*(File|Module)`),
	regexp.MustCompile(`(?im)^##?\s*(Priority|Severity)`),
	regexp.MustCompile(`(?im)^##?\s*(Fix|Solution|Recommendation)`),
}

var markdownHeaderRe = regexp.MustCompile(`(?m)^#+\s+`)

// PlanResponse validates an auditor plan reply. Structure problems are
// warnings; only an empty reply is invalid.
func PlanResponse(response string) Result {
	if strings.TrimSpace(response) == "" {
		return invalid("empty response")
	}

	res := Result{Valid: true}
	if len(response) < 50 {
		res.Warnings = append(res.Warnings, "plan seems too short to be useful")
	}
	if !markdownHeaderRe.MatchString(response) {
		res.Warnings = append(res.Warnings, "no markdown headers found in plan")
	}

	sections := 0
	for _, re := range planSections {
		if re.MatchString(response) {
			sections++
		}
	}
	if sections < 2 {
		res.Warnings = append(res.Warnings, "plan may be missing important sections")
	}

	return res
}
