// Package sandbox provides root-anchored file access for a remediation run.
//
// Every path is resolved to its absolute, symlink-free form and verified to
// fall inside the declared root before any I/O occurs. Escapes — including
// symlink indirection — are rejected with ErrViolation. The rest of the
// system addresses files by root-relative slash paths.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrViolation marks a path that resolves outside the sandbox root.
var ErrViolation = errors.New("sandbox violation")

// Store performs file operations restricted to a single root directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir. The root must exist and be a
// directory; it is resolved to its real filesystem path up front so prefix
// checks are symlink-safe.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", dir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", dir, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat root %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", dir)
	}
	return &Store{root: resolved, logger: logger}, nil
}

// Root returns the resolved sandbox root.
func (s *Store) Root() string { return s.root }

// Resolve validates path against the root and returns its absolute form.
// Relative paths are anchored at the root. The path need not exist, but its
// nearest existing ancestor must resolve inside the root.
func (s *Store) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrViolation)
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.root, abs)
	}
	abs = filepath.Clean(abs)

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Path doesn't exist yet (write case): resolve the parent instead.
		parent, parentErr := filepath.EvalSymlinks(filepath.Dir(abs))
		if parentErr != nil {
			if errors.Is(parentErr, fs.ErrNotExist) {
				// Deep new path: fall back to the lexically cleaned form.
				resolved = abs
			} else {
				return "", fmt.Errorf("resolving %q: %w", path, parentErr)
			}
		} else {
			resolved = filepath.Join(parent, filepath.Base(abs))
		}
	}

	if resolved != s.root && !strings.HasPrefix(resolved, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %q resolves to %q outside root %q", ErrViolation, path, resolved, s.root)
	}
	return resolved, nil
}

// Read returns the contents of a file inside the sandbox.
func (s *Store) Read(path string) (string, error) {
	safe, err := s.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(safe)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Write stores content at path inside the sandbox, creating parent
// directories as needed.
func (s *Store) Write(path, content string) error {
	safe, err := s.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(safe), 0750); err != nil {
		return fmt.Errorf("creating parent directory for %s: %w", path, err)
	}
	if err := os.WriteFile(safe, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	s.logger.Debug("file written", slog.String("path", path), slog.Int("bytes", len(content)))
	return nil
}

// Exists reports whether path exists inside the sandbox.
func (s *Store) Exists(path string) bool {
	safe, err := s.Resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(safe)
	return err == nil
}

// List returns root-relative slash paths of all files matching the
// doublestar pattern, sorted. Hidden directories and __pycache__ are always
// skipped.
func (s *Store) List(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.root), pattern)
	if err != nil {
		return nil, fmt.Errorf("matching pattern %q: %w", pattern, err)
	}

	var out []string
	for _, m := range matches {
		if skipAlways(m) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// ListSource is List restricted to source files: the tests directory is
// excluded as well.
func (s *Store) ListSource(pattern string) ([]string, error) {
	matches, err := s.List(pattern)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range matches {
		if hasPart(m, "tests") {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func skipAlways(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") || part == "__pycache__" {
			return true
		}
	}
	return false
}

func hasPart(rel, name string) bool {
	for _, part := range strings.Split(rel, "/") {
		if part == name {
			return true
		}
	}
	return false
}
