package fileops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/haasonsaas/codeagent/internal/ignorefiles"
	"github.com/haasonsaas/codeagent/internal/runtime"
)

const (
	defaultListLimit = 100
	maxListLimit      = 500
)

// ListDirectoryTool lists one directory's entries, paginated. The
// bounded page size is load-bearing: an unbounded listing is a common
// cause of context blowup.
type ListDirectoryTool struct {
	Resolver *Resolver
}

func NewListDirectoryTool(r *Resolver) *ListDirectoryTool { return &ListDirectoryTool{Resolver: r} }

func (t *ListDirectoryTool) Name() string        { return "list_directory" }
func (t *ListDirectoryTool) Description() string { return "Lists the contents of a directory, directories first, paginated with a bounded page size." }

func (t *ListDirectoryTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"dir_path": {"type": "string"},
			"ignore": {"type": "array", "items": {"type": "string"}},
			"respect_git_ignore": {"type": "boolean"},
			"respect_gemini_ignore": {"type": "boolean"},
			"limit": {"type": "integer"},
			"offset": {"type": "integer"}
		},
		"required": ["dir_path"]
	}`)
}

type listDirParams struct {
	DirPath             string   `json:"dir_path"`
	Ignore              []string `json:"ignore,omitempty"`
	RespectGitIgnore    *bool    `json:"respect_git_ignore,omitempty"`
	RespectGeminiIgnore *bool    `json:"respect_gemini_ignore,omitempty"`
	Limit               *int     `json:"limit,omitempty"`
	Offset              *int     `json:"offset,omitempty"`
}

func (t *ListDirectoryTool) Invoke(_ context.Context, raw json.RawMessage) runtime.ToolResult {
	var p listDirParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	if p.DirPath == "" {
		return runtime.NewToolError(runtime.ErrInvalidParameter, "dir_path is required").ErrorResult()
	}

	abs, err := t.Resolver.Resolve(p.DirPath)
	if err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return runtime.NewToolError(runtime.ErrDirectoryNotFound, fmt.Sprintf("directory not found: %s", p.DirPath)).ErrorResult()
	}
	if err != nil {
		return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
	}
	if !info.IsDir() {
		return runtime.NewToolError(runtime.ErrNotADirectory, fmt.Sprintf("%s is not a directory", p.DirPath)).ErrorResult()
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
	}

	respectGit := p.RespectGitIgnore == nil || *p.RespectGitIgnore
	respectAgent := p.RespectGeminiIgnore == nil || *p.RespectGeminiIgnore
	matcher := ignorefiles.Load(abs, respectGit, respectAgent)

	var dirs, files []string
	for _, e := range entries {
		name := e.Name()
		if matcher.MatchesName(name) {
			continue
		}
		if matchesAnyGlob(p.Ignore, name) {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, name)
		} else {
			files = append(files, name)
		}
	}
	sort.Slice(dirs, func(i, j int) bool { return strings.ToLower(dirs[i]) < strings.ToLower(dirs[j]) })
	sort.Slice(files, func(i, j int) bool { return strings.ToLower(files[i]) < strings.ToLower(files[j]) })

	all := make([]string, 0, len(dirs)+len(files))
	for _, d := range dirs {
		all = append(all, "[DIR] "+d)
	}
	all = append(all, files...)

	limit := defaultListLimit
	if p.Limit != nil && *p.Limit > 0 {
		limit = *p.Limit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := 0
	if p.Offset != nil && *p.Offset > 0 {
		offset = *p.Offset
	}

	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := all[offset:end]

	data := map[string]any{}
	if end < total {
		data["next_offset"] = end
	}

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(strings.Join(page, "\n")),
		ReturnDisplay: fmt.Sprintf("Listed %d of %d entries in %s", len(page), total, p.DirPath),
		Data:          data,
	}
}

func matchesAnyGlob(patterns []string, name string) bool {
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}
