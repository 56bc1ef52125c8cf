package fileops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

// WriteTool creates or overwrites a file, preserving the dominant line
// ending of any existing content.
type WriteTool struct {
	Resolver *Resolver
}

func NewWriteTool(r *Resolver) *WriteTool { return &WriteTool{Resolver: r} }

func (t *WriteTool) Name() string        { return "write_file" }
func (t *WriteTool) Description() string { return "Writes content to a file, creating parent directories as needed and preserving the file's dominant line ending." }

func (t *WriteTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Absolute path of the file to write"},
			"content": {"type": "string", "description": "Content to write"}
		},
		"required": ["file_path", "content"]
	}`)
}

type writeFileParams struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

func (t *WriteTool) Invoke(_ context.Context, raw json.RawMessage) runtime.ToolResult {
	var p writeFileParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	if p.FilePath == "" {
		return runtime.NewToolError(runtime.ErrInvalidParameter, "file_path is required").ErrorResult()
	}

	abs, err := t.Resolver.Resolve(p.FilePath)
	if err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}

	info, statErr := os.Stat(abs)
	existed := statErr == nil
	if existed && info.IsDir() {
		return runtime.NewToolError(runtime.ErrTargetIsDirectory, fmt.Sprintf("%s is a directory", p.FilePath)).ErrorResult()
	}

	content := p.Content
	if existed {
		old, readErr := os.ReadFile(abs)
		if readErr == nil && dominantLineEndingIsCRLF(string(old)) {
			content = toCRLF(content)
		}
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		if os.IsPermission(err) {
			return runtime.NewToolError(runtime.ErrPermissionDenied, err.Error()).ErrorResult()
		}
		return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
	}

	operation := "update"
	if !existed {
		operation = "create"
	}
	numLines := strings.Count(content, "\n") + 1
	if content == "" {
		numLines = 0
	}

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(fmt.Sprintf("Successfully wrote %d lines to %s", numLines, p.FilePath)),
		ReturnDisplay: unifiedDiffSummary(p.FilePath, operation),
		Data: map[string]any{
			"operation": operation,
			"num_lines": numLines,
		},
	}
}

func dominantLineEndingIsCRLF(s string) bool {
	crlf := strings.Count(s, "\r\n")
	lf := strings.Count(s, "\n") - crlf
	return crlf > lf
}

func toCRLF(s string) string {
	// Normalize to LF first so this is idempotent regardless of input.
	normalized := strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}

func unifiedDiffSummary(path, operation string) string {
	return fmt.Sprintf("%s: %s", operation, path)
}
