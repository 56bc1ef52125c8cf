// Package memory implements save_memory: appending a fact as a bullet
// under a canonical section header in the agent's memory file, creating
// the file and header on first use.
package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

// SectionHeader is the canonical heading under which facts are appended.
const SectionHeader = "## Gemini Added Memories"

// Tool implements save_memory.
type Tool struct {
	Path string // absolute path to the memory file
}

func NewTool(path string) *Tool { return &Tool{Path: path} }

func (t *Tool) Name() string        { return "save_memory" }
func (t *Tool) Description() string { return "Saves a fact as a bullet point to long-term memory for future sessions." }

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"fact": {"type": "string"}},
		"required": ["fact"]
	}`)
}

type memoryParams struct {
	Fact string `json:"fact"`
}

func (t *Tool) Invoke(_ context.Context, raw json.RawMessage) runtime.ToolResult {
	var p memoryParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	fact := cleanFact(p.Fact)
	if fact == "" {
		return runtime.NewToolError(runtime.ErrInvalidParameter, "fact must not be empty").ErrorResult()
	}

	if err := os.MkdirAll(filepath.Dir(t.Path), 0o755); err != nil {
		return runtime.NewToolError(runtime.ErrPermissionDenied, err.Error()).ErrorResult()
	}

	if err := appendFact(t.Path, fact); err != nil {
		return runtime.NewToolError(runtime.ErrPermissionDenied, err.Error()).ErrorResult()
	}

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(fmt.Sprintf("Okay, I've remembered that: %q", fact)),
		ReturnDisplay: "Memory saved",
		Data:          map[string]any{"path": t.Path},
	}
}

// cleanFact trims surrounding whitespace and any leading bullet-dash
// runs a caller may have already included.
func cleanFact(fact string) string {
	fact = strings.TrimSpace(fact)
	fact = strings.TrimLeft(fact, "-* \t")
	return strings.TrimSpace(fact)
}

// appendFact finds (or creates) SectionHeader in the file at path and
// appends "- fact" as the last bullet under it. No deduplication is
// performed: repeated facts accumulate as repeated bullets.
func appendFact(path, fact string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	lines := []string{}
	if len(existing) > 0 {
		scanner := bufio.NewScanner(strings.NewReader(string(existing)))
		scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
	}

	headerIdx := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == SectionHeader {
			headerIdx = i
			break
		}
	}

	bullet := "- " + fact

	var out []string
	if headerIdx == -1 {
		out = append(out, lines...)
		if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, SectionHeader, bullet)
	} else {
		insertAt := len(lines)
		for i := headerIdx + 1; i < len(lines); i++ {
			if strings.HasPrefix(strings.TrimSpace(lines[i]), "## ") {
				insertAt = i
				break
			}
		}
		out = append(out, lines[:insertAt]...)
		out = append(out, bullet)
		out = append(out, lines[insertAt:]...)
	}

	content := strings.Join(out, "\n") + "\n"
	return os.WriteFile(path, []byte(content), 0o644)
}
