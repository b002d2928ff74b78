package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// lineNumberRe matches a line-number prefix as produced by AddLineNumbers:
// optional leading space, digits, optional space, a pipe, at most one space.
// A pipe preceded by anything other than digits/whitespace (a bitwise OR,
// say) does not match.
var lineNumberRe = regexp.MustCompile(`^\s*\d+\s*\|\s?(.*)$`)

// AddLineNumbers prefixes each line with a 4-digit right-aligned line number
// and a pipe separator, the format the agents use when showing code to the
// model.
func AddLineNumbers(content string) string {
	lines := strings.Split(content, "\n")
	numbered := make([]string, len(lines))
	for i, line := range lines {
		numbered[i] = fmt.Sprintf("%4d | %s", i+1, line)
	}
	return strings.Join(numbered, "\n")
}

// StripLineNumbers removes line-number prefixes the model may have copied
// from its input. Lines without a prefix pass through unchanged, so the
// operation is idempotent and StripLineNumbers(AddLineNumbers(x)) == x.
func StripLineNumbers(content string) string {
	lines := strings.Split(content, "\n")
	cleaned := make([]string, len(lines))
	for i, line := range lines {
		if m := lineNumberRe.FindStringSubmatch(line); m != nil {
			cleaned[i] = m[1]
		} else {
			cleaned[i] = line
		}
	}
	return strings.Join(cleaned, "\n")
}

// Sanitize removes artifacts the model sometimes leaves in code output:
// fence marker lines are dropped entirely, line-number prefixes stripped.
func Sanitize(content string) string {
	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		if m := lineNumberRe.FindStringSubmatch(line); m != nil {
			cleaned = append(cleaned, m[1])
		} else {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
