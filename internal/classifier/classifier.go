// Package classifier turns raw test failures into prioritized, deduplicated
// context the fixer can act on.
//
// Failures are bucketed into three tiers by how directly actionable they
// are: assertion/type/value mismatches first (the model can usually fix
// these from the message alone), structural lookup failures second, and
// everything else last with a truncated raw message.
package classifier

import (
	"fmt"
	"strings"

	"github.com/jkaninda/rekebisha/internal/testrunner"
)

// Tier is the priority bucket of a failure: 1 is most actionable.
type Tier int

const (
	TierCritical  Tier = 1 // Expected-vs-actual mismatches, type errors.
	TierImportant Tier = 2 // Missing members, bad lookups.
	TierContext   Tier = 3 // Everything else.
)

// ClassifiedFailure is one failure with its assigned tier.
type ClassifiedFailure struct {
	Test    string
	Message string
	Tier    Tier
}

var (
	tier1Markers = []string{"AssertionError", "TypeError", "ValueError"}
	tier2Markers = []string{"AttributeError", "KeyError", "IndexError", "NameError"}
)

// Classify assigns a tier to a failure message. First match wins, evaluated
// tier 1 before tier 2.
func Classify(f testrunner.Failure) ClassifiedFailure {
	cf := ClassifiedFailure{Test: f.Test, Message: f.Message, Tier: TierContext}
	for _, kw := range tier1Markers {
		if strings.Contains(f.Message, kw) {
			cf.Tier = TierCritical
			return cf
		}
	}
	for _, kw := range tier2Markers {
		if strings.Contains(f.Message, kw) {
			cf.Tier = TierImportant
			return cf
		}
	}
	return cf
}

const (
	maxRawMessage    = 300
	maxFallback      = 400
	maxOutputExcerpt = 1000
	maxActionable    = 3
)

// ErrorLogs converts a test result into ordered, deduplicated display lines
// for the next fix request. Successful runs produce nothing.
func ErrorLogs(result *testrunner.Result) []string {
	if result.Success {
		return nil
	}

	logs := []string{fmt.Sprintf("Tests: %d passed, %d failed, %d errors",
		result.Passed, result.Failed, result.Errors)}

	var tier1, tier2, tier3 []ClassifiedFailure
	for _, f := range result.Failures {
		switch cf := Classify(f); cf.Tier {
		case TierCritical:
			tier1 = append(tier1, cf)
		case TierImportant:
			tier2 = append(tier2, cf)
		default:
			tier3 = append(tier3, cf)
		}
	}

	if len(tier1) > 0 {
		logs = append(logs, "\n## CRITICAL FAILURES (fix these first):")
		for _, cf := range tier1 {
			logs = append(logs, "FAILED: "+cf.Test, "  "+ActionableInfo(cf.Message))
		}
	}
	if len(tier2) > 0 {
		logs = append(logs, "\n## IMPORTANT FAILURES:")
		for _, cf := range tier2 {
			logs = append(logs, "FAILED: "+cf.Test, "  "+ActionableInfo(cf.Message))
		}
	}
	if len(tier3) > 0 {
		logs = append(logs, "\n## OTHER FAILURES:")
		for _, cf := range tier3 {
			logs = append(logs, "FAILED: "+cf.Test, "  Message: "+truncate(cf.Message, maxRawMessage))
		}
	}

	if len(result.Failures) == 0 && result.Output != "" {
		logs = append(logs, "\n## Output excerpt:", truncate(result.Output, maxOutputExcerpt))
	}

	return dedupe(logs)
}

// ActionableInfo pulls the most useful fragment out of an error message:
// expected-vs-actual comparisons where present, otherwise the truncated
// message itself. See actionable.go for the pattern list.
func ActionableInfo(message string) string {
	var parts []string
	for _, p := range actionablePatterns {
		for _, m := range p.FindAllStringSubmatch(message, -1) {
			if len(parts) >= maxActionable {
				break
			}
			groups := m[1:]
			switch len(groups) {
			case 1:
				parts = append(parts, strings.TrimSpace(groups[0]))
			default:
				trimmed := make([]string, len(groups))
				for i, g := range groups {
					trimmed[i] = strings.TrimSpace(g)
				}
				parts = append(parts, strings.Join(trimmed, " vs "))
			}
		}
	}

	if len(parts) > 0 {
		if len(parts) > maxActionable {
			parts = parts[:maxActionable]
		}
		return strings.Join(parts, "; ")
	}
	return truncate(message, maxFallback)
}

// dedupe keeps the first occurrence of each line, comparing trimmed,
// case-folded text but preserving the original text and order.
func dedupe(lines []string) []string {
	seen := make(map[string]bool, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		key := strings.ToLower(strings.TrimSpace(line))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
