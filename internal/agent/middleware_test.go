package agent

import (
	"context"
	"testing"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

type recordingMiddleware struct {
	BaseMiddleware
	name          string
	beforeResult  HookResult
	afterResult   HookResult
	forceContinue bool
}

func (m *recordingMiddleware) Name() string { return m.name }

func (m *recordingMiddleware) BeforeModel(_ context.Context, in HookInput) (HookResult, error) {
	return m.beforeResult, nil
}

func (m *recordingMiddleware) AfterModel(_ context.Context, in HookInput) (HookResult, error) {
	r := m.afterResult
	r.ForceContinue = m.forceContinue
	return r, nil
}

func TestPipelineLastWriteWinsOnMessages(t *testing.T) {
	first := &recordingMiddleware{name: "first", beforeResult: HookResult{
		Messages: []*runtime.Message{runtime.NewUserMessage("from first")},
	}}
	second := &recordingMiddleware{name: "second", beforeResult: HookResult{
		Messages: []*runtime.Message{runtime.NewUserMessage("from second")},
	}}

	p := NewPipeline(first, second)
	out, _, err := p.runBeforeModel(context.Background(), HookInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Messages) != 1 || out.Messages[0].Content != "from second" {
		t.Fatalf("expected last registered middleware's messages to win, got %v", out.Messages)
	}
}

func TestPipelineForceContinueIsOR(t *testing.T) {
	first := &recordingMiddleware{name: "first", forceContinue: false}
	second := &recordingMiddleware{name: "second", forceContinue: true}

	p := NewPipeline(first, second)
	_, forceContinue, err := p.runAfterModel(context.Background(), HookInput{ParsedResponse: &runtime.ParsedResponse{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !forceContinue {
		t.Fatalf("expected force_continue true when any middleware sets it")
	}
}

func TestPipelineEmptyIsNoOp(t *testing.T) {
	p := NewPipeline()
	in := HookInput{Messages: []*runtime.Message{runtime.NewUserMessage("unchanged")}}
	out, forceContinue, err := p.runBeforeModel(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forceContinue {
		t.Fatalf("expected force_continue false with no middlewares")
	}
	if len(out.Messages) != 1 || out.Messages[0].Content != "unchanged" {
		t.Fatalf("expected messages passed through unchanged")
	}
}
