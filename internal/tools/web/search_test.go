package web

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

func TestSearchToolNotConfigured(t *testing.T) {
	tool := NewSearchTool(nil)
	params, _ := json.Marshal(map[string]any{"query": "golang"})
	result := tool.Invoke(context.Background(), params)
	if result.Error == nil || result.Error.Type != runtime.ErrWebSearchNotConfigured {
		t.Fatalf("expected WEB_SEARCH_NOT_CONFIGURED, got %v", result.Error)
	}
}

func TestSearchToolRejectsEmptyQuery(t *testing.T) {
	tool := NewSearchTool(func(ctx context.Context, query string) (string, error) {
		return "unused", nil
	})
	params, _ := json.Marshal(map[string]any{"query": ""})
	result := tool.Invoke(context.Background(), params)
	if result.Error == nil || result.Error.Type != runtime.ErrInvalidParameter {
		t.Fatalf("expected INVALID_PARAMETER, got %v", result.Error)
	}
}

func TestSearchToolDelegatesToBackend(t *testing.T) {
	var gotQuery string
	tool := NewSearchTool(func(ctx context.Context, query string) (string, error) {
		gotQuery = query
		return "search results here", nil
	})
	params, _ := json.Marshal(map[string]any{"query": "idiomatic go"})
	result := tool.Invoke(context.Background(), params)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if gotQuery != "idiomatic go" {
		t.Fatalf("expected query forwarded, got %q", gotQuery)
	}
	if result.LLMContent.Text != "search results here" {
		t.Fatalf("unexpected content: %q", result.LLMContent.Text)
	}
}

func TestSearchToolBackendFailure(t *testing.T) {
	tool := NewSearchTool(func(ctx context.Context, query string) (string, error) {
		return "", errors.New("upstream unavailable")
	})
	params, _ := json.Marshal(map[string]any{"query": "x"})
	result := tool.Invoke(context.Background(), params)
	if result.Error == nil || result.Error.Type != runtime.ErrWebSearchFailed {
		t.Fatalf("expected WEB_SEARCH_FAILED, got %v", result.Error)
	}
}
