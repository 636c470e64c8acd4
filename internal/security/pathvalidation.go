// Package security validates file names and paths that arrive from HTTP
// requests before they reach the filesystem.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a path resolves outside its directory.
var ErrPathTraversal = errors.New("path traversal detected")

// ValidatePathWithinDirectory checks that filePath resolves inside safeDir,
// following symlinks on both. A filePath that does not exist yet is checked
// through its nearest existing parent.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}
	canonicalSafeDir, err := filepath.EvalSymlinks(absSafeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory symlinks: %w", err)
	}

	relPath, err := filepath.Rel(canonicalSafeDir, resolveExisting(absPath))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPathTraversal, err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("%w: %s escapes %s", ErrPathTraversal, filePath, safeDir)
	}
	return nil
}

// resolveExisting resolves symlinks in the longest existing prefix of
// absPath and re-attaches the rest.
func resolveExisting(absPath string) string {
	for dir := absPath; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, absPath)
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absPath
		}
		dir = parent
	}
}

// SanitizeFilename makes a safe filename from an arbitrary string: runs of
// characters other than ASCII letters, digits, dot, underscore and dash
// become one underscore, and the result is capped at 128 bytes.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
