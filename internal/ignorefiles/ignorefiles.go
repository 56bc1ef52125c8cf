// Package ignorefiles parses .gitignore/.geminiignore-style pattern
// files and matches paths against them. Shared by the folder-structure
// scanner and the glob/list-directory tools.
package ignorefiles

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExcludes are always excluded regardless of ignore files,
// matching the search cascade's hardcoded exclude-dir set.
var DefaultExcludes = []string{
	"node_modules", ".git", "__pycache__", "venv", ".venv", "dist", "build", ".tox", ".eggs",
}

// Matcher matches relative paths against a set of glob patterns loaded
// from .gitignore / .geminiignore files, plus the always-on default
// excludes.
type Matcher struct {
	patterns []string
}

// Load reads patterns from .gitignore and/or .geminiignore under root,
// per the toggles, and returns a Matcher. Comments ("#...") are skipped
// and a trailing "/" is stripped from each pattern.
func Load(root string, respectGitIgnore, respectAgentIgnore bool) *Matcher {
	m := &Matcher{patterns: append([]string{}, DefaultExcludes...)}
	if respectGitIgnore {
		m.patterns = append(m.patterns, readPatterns(filepath.Join(root, ".gitignore"))...)
	}
	if respectAgentIgnore {
		m.patterns = append(m.patterns, readPatterns(filepath.Join(root, ".geminiignore"))...)
	}
	return m
}

func readPatterns(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSuffix(line, "/")
		patterns = append(patterns, line)
	}
	return patterns
}

// MatchesName reports whether a bare file/directory name (not a path)
// matches any loaded pattern, using shell glob semantics.
func (m *Matcher) MatchesName(name string) bool {
	for _, p := range m.patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
		if p == name {
			return true
		}
	}
	return false
}

// MatchesPath reports whether any path segment, or the full relative
// path, matches a loaded pattern.
func (m *Matcher) MatchesPath(relPath string) bool {
	if m.MatchesName(relPath) {
		return true
	}
	for _, seg := range strings.Split(relPath, string(filepath.Separator)) {
		if m.MatchesName(seg) {
			return true
		}
	}
	return false
}
