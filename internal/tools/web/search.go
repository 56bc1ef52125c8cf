package web

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

// SearchFunc is an injected web-search backend, delegating to a
// pluggable provider rather than hardcoding one search API.
type SearchFunc func(ctx context.Context, query string) (string, error)

// SearchTool implements web_search, delegating to an injected SearchFunc.
// When none is configured, every call fails with WEB_SEARCH_NOT_CONFIGURED.
type SearchTool struct {
	Search SearchFunc
}

func NewSearchTool(fn SearchFunc) *SearchTool { return &SearchTool{Search: fn} }

func (t *SearchTool) Name() string        { return "web_search" }
func (t *SearchTool) Description() string { return "Searches the web for a query and returns a summary of results." }

func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"query": {"type": "string"}},
		"required": ["query"]
	}`)
}

type searchParams struct {
	Query string `json:"query"`
}

func (t *SearchTool) Invoke(ctx context.Context, raw json.RawMessage) runtime.ToolResult {
	var p searchParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}
	if p.Query == "" {
		return runtime.NewToolError(runtime.ErrInvalidParameter, "query must not be empty").ErrorResult()
	}
	if t.Search == nil {
		return runtime.NewToolError(runtime.ErrWebSearchNotConfigured, "no web search backend is configured").ErrorResult()
	}

	text, err := t.Search(ctx, p.Query)
	if err != nil {
		return runtime.NewToolError(runtime.ErrWebSearchFailed, err.Error()).ErrorResult()
	}

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(text),
		ReturnDisplay: fmt.Sprintf("Searched for %q", p.Query),
	}
}
