// Package fileops implements the file-oriented tool catalog: read-file,
// write-file, replace (the three-strategy edit engine), list-directory,
// glob, and read-many-files. All path arguments are sandboxed through
// Resolver so a tool call can never escape its configured root via an
// absolute path or a "../" traversal.
package fileops

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver confines path resolution to a root directory.
type Resolver struct {
	Root string
}

// NewResolver builds a Resolver rooted at root (made absolute and cleaned).
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	return &Resolver{Root: filepath.Clean(abs)}, nil
}

// Resolve validates that path, once made absolute against Root, stays
// inside Root. It accepts both absolute and root-relative inputs.
func (r *Resolver) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(r.Root, path))
	}

	rel, err := filepath.Rel(r.Root, abs)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes workspace root %q", path, r.Root)
	}
	return abs, nil
}
