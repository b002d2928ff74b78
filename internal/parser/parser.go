// Package parser extracts file-content blocks from free-form model replies.
//
// Replies are semi-structured at best: the expected shape is a file marker
// line followed by a fenced python block, but models drift between marker
// styles and sometimes omit markers entirely. Extraction therefore runs an
// ordered cascade of patterns from most to least specific and falls back to
// positional matching against the caller's expected file list. Patterns are
// never merged: the first one that yields a match wins outright, since mixing
// partial matches from different patterns corrupts file boundaries.
package parser

import (
	"regexp"
	"strings"
)

// FileBlock is one extracted file: its declared path and cleaned content.
type FileBlock struct {
	Path    string
	Content string
}

// markerPatterns recognize a file marker line followed by a fenced python
// region, ordered most to least specific. Submatch 1 = path, 2 = content.
var markerPatterns = []*regexp.Regexp{
	regexp.MustCompile("(?is)###\\s*FILE:\\s*([^\n]+)\n```python\n(.*?)```"),
	regexp.MustCompile("(?is)##\\s*FILE:\\s*([^\n]+)\n```python\n(.*?)```"),
	regexp.MustCompile("(?is)\\*\\*File:\\*\\*\\s*`?([^`\n]+)`?\n```python\n(.*?)```"),
}

// fencedBlockRe matches anonymous fenced python regions for the positional
// fallback.
var fencedBlockRe = regexp.MustCompile("(?s)```python\n(.*?)```")

// artifactOnlyRe matches content that is nothing but a stray marker.
var artifactOnlyRe = regexp.MustCompile("(?i)^(```[a-z]*|###?\\s*FILE:.*)$")

// Extract parses a model reply into file blocks.
//
// The marker patterns are tried in order; the first with at least one match
// is used exclusively. If none match and expectedFiles is non-empty, the
// anonymous fenced blocks are matched positionally: a block per expected
// file zips them in encounter order, a single block with a single expected
// file maps directly, and anything else returns nil rather than guessing.
//
// Paths are unique in the result, ordered by first appearance. Blocks that
// are empty after cleaning, or consist only of a stray marker, are dropped.
func Extract(response string, expectedFiles []string) []FileBlock {
	blocks := extractMarked(response)
	if len(blocks) > 0 || len(expectedFiles) == 0 {
		return blocks
	}
	return extractPositional(response, expectedFiles)
}

func extractMarked(response string) []FileBlock {
	for _, pattern := range markerPatterns {
		matches := pattern.FindAllStringSubmatch(response, -1)
		if len(matches) == 0 {
			continue
		}

		var blocks []FileBlock
		index := make(map[string]int)
		for _, m := range matches {
			path := strings.TrimSpace(m[1])
			content := cleanBlock(m[2])
			if path == "" || content == "" {
				continue
			}
			if i, ok := index[path]; ok {
				blocks[i].Content = content
				continue
			}
			index[path] = len(blocks)
			blocks = append(blocks, FileBlock{Path: path, Content: content})
		}
		return blocks
	}
	return nil
}

func extractPositional(response string, expectedFiles []string) []FileBlock {
	matches := fencedBlockRe.FindAllStringSubmatch(response, -1)

	var contents []string
	for _, m := range matches {
		if c := cleanBlock(m[1]); c != "" {
			contents = append(contents, c)
		}
	}

	switch {
	case len(contents) == len(expectedFiles):
		blocks := make([]FileBlock, 0, len(contents))
		for i, c := range contents {
			blocks = append(blocks, FileBlock{Path: expectedFiles[i], Content: c})
		}
		return blocks
	case len(contents) == 1 && len(expectedFiles) == 1:
		return []FileBlock{{Path: expectedFiles[0], Content: contents[0]}}
	default:
		// Ambiguous mapping. Refusing beats corrupting the wrong file.
		return nil
	}
}

// cleanBlock strips line numbers and rejects artifact-only content.
func cleanBlock(raw string) string {
	content := StripLineNumbers(strings.TrimSpace(raw))
	content = strings.TrimSpace(content)
	if content == "" || artifactOnlyRe.MatchString(content) {
		return ""
	}
	return content
}
