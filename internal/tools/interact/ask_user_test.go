package interact

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

func echoAnswerer(answers ...string) Answerer {
	return func(_ context.Context, questions []Question) ([]string, error) {
		return answers, nil
	}
}

func TestAskUserReturnsAnswersKeyedByHeader(t *testing.T) {
	tool := NewTool(echoAnswerer("yes", "blue"))
	params, _ := json.Marshal(map[string]any{"questions": []map[string]any{
		{"question": "Proceed?", "header": "Confirm", "type": "yesno"},
		{"question": "Favorite color?", "header": "Color", "type": "choice", "options": []string{"red", "blue"}},
	}})
	result := tool.Invoke(context.Background(), params)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	text := result.LLMContent.Text
	if text != "Confirm: yes\nColor: blue\n" {
		t.Fatalf("unexpected rendered answers: %q", text)
	}
}

func TestAskUserRejectsTooFewQuestions(t *testing.T) {
	tool := NewTool(echoAnswerer())
	params, _ := json.Marshal(map[string]any{"questions": []map[string]any{}})
	result := tool.Invoke(context.Background(), params)
	if result.Error == nil || result.Error.Type != runtime.ErrInvalidParameter {
		t.Fatalf("expected INVALID_PARAMETER, got %v", result.Error)
	}
}

func TestAskUserRejectsTooManyQuestions(t *testing.T) {
	tool := NewTool(echoAnswerer())
	qs := make([]map[string]any, 5)
	for i := range qs {
		qs[i] = map[string]any{"question": "q", "header": "H", "type": "text"}
	}
	params, _ := json.Marshal(map[string]any{"questions": qs})
	result := tool.Invoke(context.Background(), params)
	if result.Error == nil || result.Error.Type != runtime.ErrInvalidParameter {
		t.Fatalf("expected INVALID_PARAMETER, got %v", result.Error)
	}
}

func TestAskUserRejectsHeaderOverTwelveChars(t *testing.T) {
	tool := NewTool(echoAnswerer("x"))
	params, _ := json.Marshal(map[string]any{"questions": []map[string]any{
		{"question": "q", "header": "WayTooLongHeader", "type": "text"},
	}})
	result := tool.Invoke(context.Background(), params)
	if result.Error == nil || result.Error.Type != runtime.ErrInvalidParameter {
		t.Fatalf("expected INVALID_PARAMETER, got %v", result.Error)
	}
}

func TestAskUserChoiceRequiresTwoToFourOptions(t *testing.T) {
	tool := NewTool(echoAnswerer("x"))
	params, _ := json.Marshal(map[string]any{"questions": []map[string]any{
		{"question": "q", "header": "H", "type": "choice", "options": []string{"only one"}},
	}})
	result := tool.Invoke(context.Background(), params)
	if result.Error == nil || result.Error.Type != runtime.ErrInvalidParameter {
		t.Fatalf("expected INVALID_PARAMETER, got %v", result.Error)
	}
}

func TestAskUserRejectsUnknownType(t *testing.T) {
	tool := NewTool(echoAnswerer("x"))
	params, _ := json.Marshal(map[string]any{"questions": []map[string]any{
		{"question": "q", "header": "H", "type": "essay"},
	}})
	result := tool.Invoke(context.Background(), params)
	if result.Error == nil || result.Error.Type != runtime.ErrInvalidParameter {
		t.Fatalf("expected INVALID_PARAMETER, got %v", result.Error)
	}
}

func TestAskUserRequiresConfiguredAnswerer(t *testing.T) {
	tool := NewTool(nil)
	params, _ := json.Marshal(map[string]any{"questions": []map[string]any{
		{"question": "q", "header": "H", "type": "text"},
	}})
	result := tool.Invoke(context.Background(), params)
	if result.Error == nil || result.Error.Type != runtime.ErrExecutionError {
		t.Fatalf("expected EXECUTION_ERROR, got %v", result.Error)
	}
}
