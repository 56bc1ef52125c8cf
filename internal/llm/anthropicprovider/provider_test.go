package anthropicprovider

import (
	"encoding/json"
	"strings"
	"testing"

	aagent "github.com/haasonsaas/codeagent/internal/agent"
	"github.com/haasonsaas/codeagent/internal/runtime"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected an error when api key is empty")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	p, err := New(Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != "claude-sonnet-4-20250514" {
		t.Fatalf("expected default model, got %q", p.model)
	}
	if p.maxTokens != 4096 {
		t.Fatalf("expected default max tokens 4096, got %d", p.maxTokens)
	}
}

func TestNewPreservesExplicitConfig(t *testing.T) {
	p, err := New(Config{APIKey: "sk-test", Model: "claude-opus-4", MaxTokens: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != "claude-opus-4" || p.maxTokens != 1000 {
		t.Fatalf("expected explicit config preserved, got model=%q maxTokens=%d", p.model, p.maxTokens)
	}
}

func TestConvertMessageToolRoleProducesToolResult(t *testing.T) {
	msg := &runtime.Message{Role: runtime.RoleTool, Content: "file contents", ToolCallID: "call-1"}
	param, err := convertMessage(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	encoded, err := json.Marshal(param)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	body := string(encoded)
	if !strings.Contains(body, "tool_result") || !strings.Contains(body, "call-1") {
		t.Fatalf("expected a tool_result block referencing the call id, got %s", body)
	}
}

func TestConvertMessageAssistantWithToolCallEncodesToolUse(t *testing.T) {
	params, _ := json.Marshal(map[string]string{"path": "a.txt"})
	msg := &runtime.Message{
		Role:      runtime.RoleAssistant,
		Content:   "reading the file",
		ToolCalls: []runtime.ToolCall{{ID: "call-1", ToolName: "read_file", Parameters: params}},
	}
	param, err := convertMessage(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	encoded, err := json.Marshal(param)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	body := string(encoded)
	if !strings.Contains(body, "tool_use") || !strings.Contains(body, "read_file") {
		t.Fatalf("expected a tool_use block naming read_file, got %s", body)
	}
}

func TestConvertMessageRejectsInvalidToolCallParameters(t *testing.T) {
	msg := &runtime.Message{
		Role:      runtime.RoleAssistant,
		ToolCalls: []runtime.ToolCall{{ID: "call-1", ToolName: "x", Parameters: json.RawMessage("not json")}},
	}
	if _, err := convertMessage(msg); err == nil {
		t.Fatalf("expected an error for malformed tool call parameters")
	}
}

func TestConvertToolsRejectsInvalidSchema(t *testing.T) {
	tools := []aagent.ToolSchema{{Name: "broken", Description: "d", Schema: []byte("not json")}}
	if _, err := convertTools(tools); err == nil {
		t.Fatalf("expected an error for an invalid tool schema")
	}
}

func TestConvertToolsBuildsOneParamPerTool(t *testing.T) {
	schema := []byte(`{"type":"object","properties":{"x":{"type":"string"}}}`)
	tools := []aagent.ToolSchema{
		{Name: "a", Description: "first", Schema: schema},
		{Name: "b", Description: "second", Schema: schema},
	}
	result, err := convertTools(tools)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 tool params, got %d", len(result))
	}
}
