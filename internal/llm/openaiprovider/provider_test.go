package openaiprovider

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	aagent "github.com/haasonsaas/codeagent/internal/agent"
	"github.com/haasonsaas/codeagent/internal/runtime"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected an error when api key is empty")
	}
}

func TestNewDefaultsModel(t *testing.T) {
	p, err := New(Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != "gpt-4o" {
		t.Fatalf("expected default model gpt-4o, got %q", p.model)
	}
}

func TestConvertMessagesMapsRolesAndToolCalls(t *testing.T) {
	params, _ := json.Marshal(map[string]string{"path": "a.txt"})
	messages := []*runtime.Message{
		runtime.NewSystemMessage("be terse"),
		runtime.NewUserMessage("read a.txt"),
		{Role: runtime.RoleAssistant, Content: "", ToolCalls: []runtime.ToolCall{{ID: "1", ToolName: "read_file", Parameters: params}}},
		{Role: runtime.RoleTool, Content: "file contents", ToolCallID: "1"},
	}

	converted, err := convertMessages(messages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(converted) != 4 {
		t.Fatalf("expected 4 converted messages, got %d", len(converted))
	}
	if converted[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("expected system role, got %q", converted[0].Role)
	}
	if converted[2].Role != openai.ChatMessageRoleAssistant || len(converted[2].ToolCalls) != 1 {
		t.Fatalf("expected assistant message with one tool call, got %+v", converted[2])
	}
	if converted[2].ToolCalls[0].Function.Name != "read_file" {
		t.Fatalf("unexpected tool call name: %q", converted[2].ToolCalls[0].Function.Name)
	}
	if converted[3].Role != openai.ChatMessageRoleTool || converted[3].ToolCallID != "1" {
		t.Fatalf("expected tool role message with matching call id, got %+v", converted[3])
	}
}

func TestConvertToolsFallsBackOnInvalidSchema(t *testing.T) {
	tools := []aagent.ToolSchema{{Name: "broken", Description: "d", Schema: []byte("not json")}}
	converted := convertTools(tools)
	if len(converted) != 1 {
		t.Fatalf("expected 1 converted tool, got %d", len(converted))
	}
	params, ok := converted[0].Function.Parameters.(map[string]any)
	if !ok || params["type"] != "object" {
		t.Fatalf("expected a fallback object schema, got %+v", converted[0].Function.Parameters)
	}
}

func TestConvertToolsPreservesValidSchema(t *testing.T) {
	schema := []byte(`{"type":"object","properties":{"x":{"type":"string"}}}`)
	tools := []aagent.ToolSchema{{Name: "ok", Description: "d", Schema: schema}}
	converted := convertTools(tools)
	params := converted[0].Function.Parameters.(map[string]any)
	if params["type"] != "object" {
		t.Fatalf("expected preserved schema type, got %+v", params)
	}
}

func TestParseChoiceExtractsTextAndToolCalls(t *testing.T) {
	choice := openai.ChatCompletionChoice{
		Message: openai.ChatCompletionMessage{
			Content: "hello",
			ToolCalls: []openai.ToolCall{
				{ID: "1", Function: openai.FunctionCall{Name: "read_file", Arguments: `{"path":"a.txt"}`}},
			},
		},
	}
	resp := parseChoice(choice)
	if resp.Text != "hello" {
		t.Fatalf("expected text hello, got %q", resp.Text)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].ToolName != "read_file" {
		t.Fatalf("unexpected tool calls: %+v", resp.ToolCalls)
	}
}
