package classifier

import "regexp"

// actionablePatterns scan a failure message for comparison fragments, in
// fixed priority order. Multi-group matches are joined with " vs ".
var actionablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)assert\s+(.+?)\s*==\s*(.+)`),
	regexp.MustCompile(`(?i)AssertionError:\s*(.+)`),
	regexp.MustCompile(`(?i)Expected:\s*(.+)`),
	regexp.MustCompile(`(?i)Actual:\s*(.+)`),
	regexp.MustCompile(`(\d+)\s*!=\s*(\d+)`),
}
