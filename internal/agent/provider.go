// Package agent implements the turn loop: the
// PrepareMessages -> BeforeModel -> Invoke -> AfterModel ->
// Append -> Dispatch -> Terminate? state machine, its middleware
// pipeline, and the forced-termination protocol around complete_task.
package agent

import (
	"context"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

// LLMProvider is the consumed model backend contract: one request in,
// one parsed response out. Concrete adapters (internal/llm/...) wrap a
// real API's streaming or batch response shape down to this.
type LLMProvider interface {
	// Chat sends the full message history and tool catalog for one turn
	// and returns the model's parsed response.
	Chat(ctx context.Context, messages []*runtime.Message, tools []ToolSchema) (runtime.ParsedResponse, error)
}

// ToolSchema is the name+schema pair advertised to the provider for
// function-calling; it deliberately excludes the Invoke method so
// provider adapters can't call tools directly, only describe them.
type ToolSchema struct {
	Name        string
	Description string
	Schema      []byte
}
