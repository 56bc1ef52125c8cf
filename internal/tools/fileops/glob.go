package fileops

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/haasonsaas/codeagent/internal/ignorefiles"
	"github.com/haasonsaas/codeagent/internal/runtime"
)

// GlobTool finds files matching a glob pattern, newest-first.
type GlobTool struct {
	Resolver *Resolver
}

func NewGlobTool(r *Resolver) *GlobTool { return &GlobTool{Resolver: r} }

func (t *GlobTool) Name() string        { return "glob" }
func (t *GlobTool) Description() string { return "Finds files matching a glob pattern (supports ** recursive segments), newest-first then alphabetical." }

func (t *GlobTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string"},
			"dir_path": {"type": "string"},
			"case_sensitive": {"type": "boolean"},
			"respect_git_ignore": {"type": "boolean"},
			"respect_gemini_ignore": {"type": "boolean"}
		},
		"required": ["pattern"]
	}`)
}

type globParams struct {
	Pattern             string `json:"pattern"`
	DirPath             string `json:"dir_path,omitempty"`
	CaseSensitive       *bool  `json:"case_sensitive,omitempty"`
	RespectGitIgnore    *bool  `json:"respect_git_ignore,omitempty"`
	RespectGeminiIgnore *bool  `json:"respect_gemini_ignore,omitempty"`
}

func (t *GlobTool) Invoke(_ context.Context, raw json.RawMessage) runtime.ToolResult {
	var p globParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	if p.Pattern == "" {
		return runtime.NewToolError(runtime.ErrInvalidPattern, "pattern is required").ErrorResult()
	}

	root := t.Resolver.Root
	if p.DirPath != "" {
		resolved, err := t.Resolver.Resolve(p.DirPath)
		if err != nil {
			return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
		}
		root = resolved
	}

	caseSensitive := true
	if p.CaseSensitive != nil {
		caseSensitive = *p.CaseSensitive
	}
	respectGit := p.RespectGitIgnore == nil || *p.RespectGitIgnore
	respectAgent := p.RespectGeminiIgnore == nil || *p.RespectGeminiIgnore
	matcher := ignorefiles.Load(root, respectGit, respectAgent)

	re, err := compileGlobPattern(p.Pattern, caseSensitive)
	if err != nil {
		return runtime.NewToolError(runtime.ErrInvalidPattern, err.Error()).ErrorResult()
	}

	type match struct {
		abs     string
		modTime time.Time
	}
	var matches []match

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
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
		relSlash := filepath.ToSlash(rel)
		if !re.MatchString(relSlash) {
			return nil
		}
		info, infoErr := d.Info()
		var mod time.Time
		if infoErr == nil {
			mod = info.ModTime()
		}
		matches = append(matches, match{abs: path, modTime: mod})
		return nil
	})

	cutoff := time.Now().Add(-24 * time.Hour)
	sort.Slice(matches, func(i, j int) bool {
		iRecent := matches[i].modTime.After(cutoff)
		jRecent := matches[j].modTime.After(cutoff)
		if iRecent != jRecent {
			return iRecent
		}
		if iRecent && jRecent {
			return matches[i].modTime.After(matches[j].modTime)
		}
		return matches[i].abs < matches[j].abs
	})

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.abs
	}

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(strings.Join(paths, "\n")),
		ReturnDisplay: fmt.Sprintf("Found %d file(s) matching %q", len(paths), p.Pattern),
		Data:          map[string]any{"count": len(paths)},
	}
}

// compileGlobPattern converts a glob pattern with recursive "**"
// segments into a regexp matched against forward-slash relative paths.
func compileGlobPattern(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	segments := strings.Split(filepath.ToSlash(pattern), "/")
	var sb strings.Builder
	sb.WriteString("^")
	for i, seg := range segments {
		if i > 0 {
			sb.WriteString("/")
		}
		if seg == "**" {
			sb.WriteString(`.*`)
			continue
		}
		sb.WriteString(globSegmentToRegex(seg))
	}
	sb.WriteString("$")
	prefix := ""
	if !caseSensitive {
		prefix = "(?i)"
	}
	return regexp.Compile(prefix + sb.String())
}

func globSegmentToRegex(seg string) string {
	var sb strings.Builder
	for i := 0; i < len(seg); i++ {
		switch c := seg[i]; c {
		case '*':
			sb.WriteString(`[^/]*`)
		case '?':
			sb.WriteString(`[^/]`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return sb.String()
}
