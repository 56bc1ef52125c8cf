// Package todos implements write_todos: a validated whole-list replace
// of the agent's todo tracker, rendered with status glyphs and a
// per-status count summary.
package todos

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

var titleCaser = cases.Title(language.Und)

var statusGlyph = map[runtime.TodoStatus]string{
	runtime.TodoPending:    "○",
	runtime.TodoInProgress: "◐",
	runtime.TodoCompleted:  "✔",
	runtime.TodoCancelled:  "✗",
}

var legalStatuses = map[runtime.TodoStatus]bool{
	runtime.TodoPending:    true,
	runtime.TodoInProgress: true,
	runtime.TodoCompleted:  true,
	runtime.TodoCancelled:  true,
}

// Store holds the current todo list across calls within one run.
type Store struct {
	Items []runtime.TodoItem
}

// Tool implements write_todos.
type Tool struct {
	Store *Store
}

func NewTool(store *Store) *Tool { return &Tool{Store: store} }

func (t *Tool) Name() string        { return "write_todos" }
func (t *Tool) Description() string { return "Replaces the current todo list with the given items; at most one item may be in_progress." }

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"todos": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"description": {"type": "string"},
						"status": {"type": "string", "enum": ["pending", "in_progress", "completed", "cancelled"]}
					},
					"required": ["description", "status"]
				}
			}
		},
		"required": ["todos"]
	}`)
}

type todosParams struct {
	Todos []runtime.TodoItem `json:"todos"`
}

func (t *Tool) Invoke(_ context.Context, raw json.RawMessage) runtime.ToolResult {
	var p todosParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}

	inProgress := 0
	for i, item := range p.Todos {
		if strings.TrimSpace(item.Description) == "" {
			return runtime.NewToolError(runtime.ErrMissingDescription,
				fmt.Sprintf("todos[%d].description must not be empty", i)).ErrorResult()
		}
		if !legalStatuses[item.Status] {
			return runtime.NewToolError(runtime.ErrInvalidStatus,
				fmt.Sprintf("todos[%d].status %q is not a legal status", i, item.Status)).ErrorResult()
		}
		if item.Status == runtime.TodoInProgress {
			inProgress++
		}
	}
	if inProgress > 1 {
		return runtime.NewToolError(runtime.ErrMultipleInProgress, "at most one todo may be in_progress at a time").ErrorResult()
	}

	t.Store.Items = p.Todos

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(renderTodos(p.Todos)),
		ReturnDisplay: summary(p.Todos),
		Data:          map[string]any{"count": len(p.Todos)},
	}
}

func renderTodos(items []runtime.TodoItem) string {
	if len(items) == 0 {
		return "(no todos)"
	}
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "%s %s\n", statusGlyph[item.Status], item.Description)
	}
	sb.WriteString(summary(items))
	return sb.String()
}

func summary(items []runtime.TodoItem) string {
	counts := map[runtime.TodoStatus]int{}
	for _, item := range items {
		counts[item.Status]++
	}
	order := []runtime.TodoStatus{runtime.TodoPending, runtime.TodoInProgress, runtime.TodoCompleted, runtime.TodoCancelled}
	parts := make([]string, len(order))
	for i, status := range order {
		label := titleCaser.String(strings.ReplaceAll(string(status), "_", " "))
		parts[i] = fmt.Sprintf("%d %s", counts[status], label)
	}
	return strings.Join(parts, ", ")
}
