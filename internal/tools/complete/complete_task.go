// Package complete implements the vestigial complete_task tool.
// Its Invoke is never actually reached in a normal run: the termination
// middleware intercepts the call before dispatch,
// captures result, and ends the loop with TerminateGoal. The schema
// and a harmless Invoke exist so the tool still validates, and so
// middleware-less test harnesses can dispatch it directly.
package complete

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

// Tool implements complete_task.
type Tool struct{}

func NewTool() *Tool { return &Tool{} }

func (t *Tool) Name() string        { return "complete_task" }
func (t *Tool) Description() string { return "Signals that the requested task is finished and reports the final result." }

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"result": {"type": "string"}},
		"required": ["result"]
	}`)
}

type completeParams struct {
	Result string `json:"result"`
}

func (t *Tool) Invoke(_ context.Context, raw json.RawMessage) runtime.ToolResult {
	var p completeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(p.Result),
		ReturnDisplay: "Task completed",
	}
}
