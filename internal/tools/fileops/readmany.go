package fileops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/haasonsaas/codeagent/internal/ignorefiles"
	"github.com/haasonsaas/codeagent/internal/runtime"
)

const (
	maxReadManyPerFileBytes = 1 * 1024 * 1024
	maxReadManyTotalBytes   = 10 * 1024 * 1024
)

// ReadManyFilesTool concatenates the contents of multiple matched files
// under a combined size cap.
type ReadManyFilesTool struct {
	Resolver *Resolver
}

func NewReadManyFilesTool(r *Resolver) *ReadManyFilesTool { return &ReadManyFilesTool{Resolver: r} }

func (t *ReadManyFilesTool) Name() string { return "read_many_files" }
func (t *ReadManyFilesTool) Description() string {
	return "Reads and concatenates the contents of multiple files matched by glob patterns, skipping binaries and oversized files."
}

func (t *ReadManyFilesTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"include": {"type": "array", "items": {"type": "string"}},
			"exclude": {"type": "array", "items": {"type": "string"}},
			"recursive": {"type": "boolean"},
			"useDefaultExcludes": {"type": "boolean"}
		},
		"required": ["include"]
	}`)
}

type readManyParams struct {
	Include            []string `json:"include"`
	Exclude            []string `json:"exclude,omitempty"`
	Recursive          *bool    `json:"recursive,omitempty"`
	UseDefaultExcludes *bool    `json:"useDefaultExcludes,omitempty"`
}

func (t *ReadManyFilesTool) Invoke(_ context.Context, raw json.RawMessage) runtime.ToolResult {
	var p readManyParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	if len(p.Include) == 0 {
		return runtime.NewToolError(runtime.ErrInvalidParameter, "include is required").ErrorResult()
	}

	useDefaults := p.UseDefaultExcludes == nil || *p.UseDefaultExcludes
	root := t.Resolver.Root
	matcher := ignorefiles.Load(root, useDefaults, useDefaults)

	includeRes := make([]interface{ MatchString(string) bool }, 0, len(p.Include))
	for _, pat := range p.Include {
		re, err := compileGlobPattern(pat, true)
		if err != nil {
			return runtime.NewToolError(runtime.ErrInvalidPattern, err.Error()).ErrorResult()
		}
		includeRes = append(includeRes, re)
	}
	excludeRes := make([]interface{ MatchString(string) bool }, 0, len(p.Exclude))
	for _, pat := range p.Exclude {
		re, err := compileGlobPattern(pat, true)
		if err != nil {
			return runtime.NewToolError(runtime.ErrInvalidPattern, err.Error()).ErrorResult()
		}
		excludeRes = append(excludeRes, re)
	}

	recursive := p.Recursive == nil || *p.Recursive

	var candidates []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if useDefaults && matcher.MatchesName(d.Name()) {
				return filepath.SkipDir
			}
			if !recursive && filepath.Dir(rel) != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if !recursive && filepath.Dir(rel) != "." {
			return nil
		}
		relSlash := filepath.ToSlash(rel)
		if useDefaults && matcher.MatchesPath(rel) {
			return nil
		}
		if !matchesAny(includeRes, relSlash) {
			return nil
		}
		if matchesAny(excludeRes, relSlash) {
			return nil
		}
		candidates = append(candidates, path)
		return nil
	})
	sort.Strings(candidates)

	var sb bytes.Buffer
	var processed, skipped []string
	var skippedReasons []string
	total := 0

	for _, path := range candidates {
		rel, _ := filepath.Rel(root, path)
		info, err := os.Stat(path)
		if err != nil {
			skipped = append(skipped, rel)
			skippedReasons = append(skippedReasons, "stat error")
			continue
		}
		if info.Size() > maxReadManyPerFileBytes {
			skipped = append(skipped, rel)
			skippedReasons = append(skippedReasons, "exceeds per-file 1 MiB limit")
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			skipped = append(skipped, rel)
			skippedReasons = append(skippedReasons, "read error")
			continue
		}
		if looksBinary(data) {
			skipped = append(skipped, rel)
			skippedReasons = append(skippedReasons, "binary content")
			continue
		}
		if total+len(data) > maxReadManyTotalBytes {
			skipped = append(skipped, rel)
			skippedReasons = append(skippedReasons, "aggregate 10 MiB budget exceeded")
			continue
		}
		total += len(data)
		fmt.Fprintf(&sb, "--- %s ---\n", rel)
		sb.Write(data)
		sb.WriteString("\n")
		processed = append(processed, rel)
	}

	var skippedDesc []string
	for i, s := range skipped {
		skippedDesc = append(skippedDesc, fmt.Sprintf("%s (%s)", s, skippedReasons[i]))
	}

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(sb.String()),
		ReturnDisplay: fmt.Sprintf("Read %d file(s), skipped %d", len(processed), len(skipped)),
		Data: map[string]any{
			"processed": processed,
			"skipped":   skippedDesc,
		},
	}
}

func matchesAny(patterns []interface{ MatchString(string) bool }, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func looksBinary(data []byte) bool {
	n := len(data)
	if n > 1024 {
		n = 1024
	}
	return strings.IndexByte(string(data[:n]), 0) >= 0
}
