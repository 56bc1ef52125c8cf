// Package search implements search_file_content: a three-tier cascade
// (VCS grep, system grep, in-process walker) so the tool degrades
// gracefully on workspaces with or without a VCS or a grep binary
// installed.
package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/haasonsaas/codeagent/internal/ignorefiles"
	"github.com/haasonsaas/codeagent/internal/runtime"
	"github.com/haasonsaas/codeagent/internal/tools/fileops"
)

const maxMatches = 500

// Match is one found line.
type Match struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Tool implements search_file_content.
type Tool struct {
	Resolver *fileops.Resolver
}

func NewTool(r *fileops.Resolver) *Tool { return &Tool{Resolver: r} }

func (t *Tool) Name() string { return "search_file_content" }
func (t *Tool) Description() string {
	return "Searches file contents for a regular expression, optionally restricted to a glob, using the fastest available strategy."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string"},
			"path": {"type": "string"},
			"include": {"type": "string"}
		},
		"required": ["pattern"]
	}`)
}

type searchParams struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
	Include string `json:"include,omitempty"`
}

func (t *Tool) Invoke(ctx context.Context, raw json.RawMessage) runtime.ToolResult {
	var p searchParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	if p.Pattern == "" {
		return runtime.NewToolError(runtime.ErrInvalidPattern, "pattern is required").ErrorResult()
	}
	if _, err := regexp.Compile(p.Pattern); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidPattern, err.Error()).ErrorResult()
	}

	root := t.Resolver.Root
	if p.Path != "" {
		resolved, err := t.Resolver.Resolve(p.Path)
		if err != nil {
			return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
		}
		root = resolved
	}

	matches, strategy, truncated, err := t.run(ctx, root, p.Pattern, p.Include)
	if err != nil {
		return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
	}

	if len(matches) == 0 {
		return runtime.ToolResult{
			LLMContent:    runtime.TextContent(fmt.Sprintf("No matches found for pattern %q", p.Pattern)),
			ReturnDisplay: "No matches found",
			Data:          map[string]any{"strategy": strategy, "count": 0},
		}
	}

	var sb strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&sb, "%s:%d:%s\n", m.Path, m.Line, m.Text)
	}
	if truncated {
		fmt.Fprintf(&sb, "[... results truncated at %d matches ...]\n", maxMatches)
	}

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(sb.String()),
		ReturnDisplay: fmt.Sprintf("Found %d match(es) (%s)", len(matches), strategy),
		Data: map[string]any{
			"strategy":  strategy,
			"count":     len(matches),
			"truncated": truncated,
		},
	}
}

// run tries the VCS-aware grep first, then a plain system grep, and
// finally falls back to an in-process directory walk with Go regexp.
func (t *Tool) run(ctx context.Context, root, pattern, include string) ([]Match, string, bool, error) {
	if m, ok, err := runVCSGrep(ctx, root, pattern, include); ok {
		return cap500WithName(m, "git_grep")
	} else if err != nil {
		_ = err // fall through to next tier
	}
	if m, ok, err := runSystemGrep(ctx, root, pattern, include); ok {
		return cap500WithName(m, "system_grep")
	} else if err != nil {
		_ = err
	}
	m, err := runWalker(root, pattern, include)
	if err != nil {
		return nil, "walker", false, err
	}
	matches, strategy, truncated, _ := cap500WithName(m, "walker")
	return matches, strategy, truncated, nil
}

func cap500(m []Match) ([]Match, string, bool, error) {
	matches, strategy, truncated, err := cap500WithName(m, "")
	return matches, strategy, truncated, err
}

func cap500WithName(m []Match, name string) ([]Match, string, bool, error) {
	truncated := false
	if len(m) > maxMatches {
		m = m[:maxMatches]
		truncated = true
	}
	return m, name, truncated, nil
}

// runVCSGrep shells out to `git grep`, available whenever root is
// inside a git work tree; it inherently respects .gitignore.
func runVCSGrep(ctx context.Context, root, pattern, include string) ([]Match, bool, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, false, nil
	}
	if _, err := os.Stat(filepath.Join(root, ".git")); err != nil {
		if !isInsideGitRepo(root) {
			return nil, false, nil
		}
	}
	args := []string{"grep", "-n", "-I", "-E", "--ignore-case", "--untracked", pattern}
	if include != "" {
		args = append(args, "--", include)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &bytes.Buffer{}
	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return []Match{}, true, nil // exit 1 == no matches, still a valid run
		}
		return nil, false, nil
	}
	return parseGrepLines(out.String(), root), true, nil
}

func isInsideGitRepo(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// runSystemGrep shells out to plain grep, used when git isn't
// available or root isn't a repo.
func runSystemGrep(ctx context.Context, root, pattern, include string) ([]Match, bool, error) {
	if _, err := exec.LookPath("grep"); err != nil {
		return nil, false, nil
	}
	args := []string{"-r", "-n", "-H", "-E", "-I", "--ignore-case"}
	for _, dir := range ignorefiles.DefaultExcludes {
		args = append(args, "--exclude-dir="+dir)
	}
	if include != "" {
		args = append(args, "--include="+include)
	}
	args = append(args, pattern, ".")
	cmd := exec.CommandContext(ctx, "grep", args...)
	cmd.Dir = root
	var out bytes.Buffer
	cmd.Stdout = &out
	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return []Match{}, true, nil
		}
		return nil, false, nil
	}
	return parseGrepLines(out.String(), root), true, nil
}

func parseGrepLines(raw, root string) []Match {
	var matches []Match
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		var lineNo int
		fmt.Sscanf(parts[1], "%d", &lineNo)
		path := strings.TrimPrefix(parts[0], "./")
		if !pathWithinRoot(root, path) {
			continue
		}
		matches = append(matches, Match{Path: path, Line: lineNo, Text: parts[2]})
	}
	return matches
}

// pathWithinRoot reports whether path, resolved against root, stays
// inside root rather than escaping it via an absolute path or "..".
func pathWithinRoot(root, path string) bool {
	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(root, path))
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// runWalker is the pure-Go fallback: walk root, skip ignored paths and
// binaries, regexp.MatchString each line.
func runWalker(root, pattern, include string) ([]Match, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	matcher := ignorefiles.Load(root, true, true)

	var matches []Match
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if matcher.MatchesName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.MatchesPath(rel) {
			return nil
		}
		if include != "" {
			ok, _ := filepath.Match(include, d.Name())
			if !ok {
				return nil
			}
		}
		if len(matches) >= maxMatches {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		if n := len(data); n > 0 {
			probe := data
			if len(probe) > 1024 {
				probe = probe[:1024]
			}
			if bytes.IndexByte(probe, 0) >= 0 {
				return nil
			}
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			text := scanner.Text()
			if re.MatchString(text) {
				matches = append(matches, Match{Path: filepath.ToSlash(rel), Line: lineNo, Text: text})
				if len(matches) >= maxMatches {
					break
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return matches, nil
}
