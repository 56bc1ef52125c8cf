package shellexec

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

// Tool implements the run_shell_command tool.
type Tool struct {
	WorkDir string
}

func NewTool(workDir string) *Tool { return &Tool{WorkDir: workDir} }

func (t *Tool) Name() string { return "run_shell_command" }
func (t *Tool) Description() string {
	return "Executes a shell command in the workspace, foreground or backgrounded, with a bounded timeout."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string"},
			"dir_path": {"type": "string"},
			"is_background": {"type": "boolean"},
			"timeout_ms": {"type": "integer"}
		},
		"required": ["command"]
	}`)
}

type shellParams struct {
	Command      string `json:"command"`
	Directory    string `json:"dir_path,omitempty"`
	IsBackground bool   `json:"is_background,omitempty"`
	TimeoutMS    int    `json:"timeout_ms,omitempty"`
}

func (t *Tool) Invoke(ctx context.Context, raw json.RawMessage) runtime.ToolResult {
	var p shellParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	if strings.TrimSpace(p.Command) == "" {
		return runtime.NewToolError(runtime.ErrInvalidParameter, "command must not be empty").ErrorResult()
	}

	dir := t.WorkDir
	if p.Directory != "" {
		dir = p.Directory
	}

	res, err := Run(ctx, Options{
		Command:      p.Command,
		WorkDir:      dir,
		TimeoutMS:    p.TimeoutMS,
		IsBackground: p.IsBackground,
	})
	if err != nil {
		return runtime.NewToolError(runtime.ErrShellExecuteError, err.Error()).ErrorResult()
	}

	if res.WentBackground {
		return runtime.ToolResult{
			LLMContent:    runtime.TextContent(fmt.Sprintf("Command moved to background (PID: %d). Output hidden.", res.BackgroundPID)),
			ReturnDisplay: fmt.Sprintf("Backgrounded (PID %d)", res.BackgroundPID),
			Data:          map[string]any{"pid": res.BackgroundPID},
		}
	}

	var sb strings.Builder
	output := res.Output
	if output == "" {
		sb.WriteString("Output: (empty)\n")
	} else {
		fmt.Fprintf(&sb, "Output: %s\n", output)
	}
	if res.TimeoutTriggered {
		sb.WriteString("[Error: command timed out and was terminated]\n")
	}
	fmt.Fprintf(&sb, "[Exit Code: %d]\n", res.ExitCode)
	if res.Signal != "" {
		fmt.Fprintf(&sb, "[Signal: %s]\n", res.Signal)
	}
	fmt.Fprintf(&sb, "[Process Group PGID: %d]\n", res.PGID)

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(sb.String()),
		ReturnDisplay: fmt.Sprintf("Exit code %d", res.ExitCode),
		Data: map[string]any{
			"exit_code": res.ExitCode,
			"pgid":      res.PGID,
			"aborted":   res.Aborted,
		},
	}
}
