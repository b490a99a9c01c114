// Package security guards the file paths markerpose writes to.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxNameLen bounds names built from marker prefixes.
const maxNameLen = 64

// SubjectFilename turns a marker prefix into a file name stem. Runs of
// characters outside [A-Za-z0-9.-] collapse to one underscore, and leading
// or trailing dots and underscores are dropped. An empty result becomes
// "subject".
func SubjectFilename(prefix string) string {
	var b strings.Builder
	under := false
	for _, r := range prefix {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			under = false
		default:
			if !under {
				b.WriteByte('_')
				under = true
			}
		}
	}
	if out := strings.Trim(b.String(), "._"); out != "" {
		return out
	}
	return "subject"
}

// WithinDir reports an error when path, once cleaned, would land outside
// dir. Neither needs to exist yet.
func WithinDir(path, dir string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	if resolved, err := filepath.EvalSymlinks(absDir); err == nil {
		absDir = resolved
		if p, err := filepath.EvalSymlinks(filepath.Dir(absPath)); err == nil {
			absPath = filepath.Join(p, filepath.Base(absPath))
		}
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return fmt.Errorf("path %s is outside %s: %w", path, dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, dir)
	}
	return nil
}
