// Package tools defines the tool contract and a name-keyed registry.
// Dynamic dispatch is the only polymorphic site in this runtime: a
// registry mapping tool name to a single-method interface, not an
// inheritance hierarchy. Tools share no state.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

// Tool is the contract every concrete tool implementation satisfies.
// Invoke is total: it never panics past its own boundary (Dispatch also
// recovers panics); failures, including parameters the tool cannot
// unmarshal (ErrInvalidParameter), are returned as ToolResult.Error.
type Tool interface {
	// Name is the function-call name exposed to the model.
	Name() string

	// Description is shown to the model to help it decide when to call
	// this tool.
	Description() string

	// Schema is the JSON-schema-shaped parameter declaration.
	Schema() json.RawMessage

	// Invoke decodes and validates the raw parameters and executes the
	// tool.
	Invoke(ctx context.Context, params json.RawMessage) runtime.ToolResult
}

// Registry is a thread-safe name -> Tool map.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, overwriting any existing registration under the
// same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every registered tool, sorted by name.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, n := range r.Names() {
		out = append(out, r.tools[n])
	}
	return out
}

// Dispatch looks up the tool by call.ToolName and invokes it. If the
// tool is unknown, a generic EXECUTION_ERROR result is returned instead
// of a Go error, preserving the "total invoke" contract at the call site.
func Dispatch(ctx context.Context, reg *Registry, call runtime.ToolCall) runtime.ToolResult {
	return DispatchWithLogger(ctx, reg, call, nil)
}

// DispatchWithLogger is Dispatch with an injected *slog.Logger for
// per-tool Debug logging; a nil logger disables logging entirely.
func DispatchWithLogger(ctx context.Context, reg *Registry, call runtime.ToolCall, logger *slog.Logger) runtime.ToolResult {
	if logger != nil {
		logger.Debug("dispatching tool call", "tool", call.ToolName, "call_id", call.ID)
	}
	t, ok := reg.Get(call.ToolName)
	if !ok {
		return runtime.NewToolError(runtime.ErrExecutionError,
			fmt.Sprintf("unknown tool %q", call.ToolName)).ErrorResult()
	}
	result := safeInvoke(ctx, t, call.Parameters)
	if logger != nil && result.Error != nil {
		logger.Debug("tool call returned an error", "tool", call.ToolName, "call_id", call.ID, "code", result.Error.Type)
	}
	return result
}

// safeInvoke recovers from any panic inside a tool's Invoke, converting
// it to an EXECUTION_ERROR result so a single misbehaving tool can never
// take down the run loop.
func safeInvoke(ctx context.Context, t Tool, params json.RawMessage) (result runtime.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = runtime.NewToolError(runtime.ErrExecutionError,
				fmt.Sprintf("tool %q panicked: %v", t.Name(), r)).ErrorResult()
		}
	}()
	return t.Invoke(ctx, params)
}
