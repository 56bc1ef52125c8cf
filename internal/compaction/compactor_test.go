package compaction

import (
	"strings"
	"testing"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

func toolMsg(name, callID, content string) *runtime.Message {
	return &runtime.Message{Role: runtime.RoleTool, Name: name, ToolCallID: callID, Content: content}
}

func assistantMsg(content string, calls ...runtime.ToolCall) *runtime.Message {
	return &runtime.Message{Role: runtime.RoleAssistant, Content: content, ToolCalls: calls}
}

func TestShouldCompactThreshold(t *testing.T) {
	c := New(Config{MaxContextTokens: 100, Threshold: 0.5})
	under := []*runtime.Message{runtime.NewUserMessage(strings.Repeat("a", 40))} // ~10 tokens
	if c.ShouldCompact(under) {
		t.Fatalf("expected no compaction under threshold")
	}
	over := []*runtime.Message{runtime.NewUserMessage(strings.Repeat("a", 400))} // ~100 tokens
	if !c.ShouldCompact(over) {
		t.Fatalf("expected compaction over threshold")
	}
}

func TestShouldCompactDisabledWithoutMaxTokens(t *testing.T) {
	c := New(Config{})
	if c.ShouldCompact([]*runtime.Message{runtime.NewUserMessage(strings.Repeat("a", 10000))}) {
		t.Fatalf("compaction must stay disabled when MaxContextTokens <= 0")
	}
}

func TestCompactPreservesSystemMessages(t *testing.T) {
	sys := runtime.NewSystemMessage("you are an agent")
	messages := []*runtime.Message{sys}
	for i := 0; i < 50; i++ {
		messages = append(messages, runtime.NewUserMessage(strings.Repeat("x", 200)))
	}

	c := New(Config{MaxContextTokens: 1000, Threshold: 0.5, PreserveRatio: 0.1})
	out := c.Compact(messages)

	if len(out) == 0 || out[0] != sys {
		t.Fatalf("expected system message preserved as first element, got %v", out)
	}
}

func TestCompactPreservesNewestMessage(t *testing.T) {
	var messages []*runtime.Message
	for i := 0; i < 50; i++ {
		messages = append(messages, runtime.NewUserMessage(strings.Repeat("x", 200)))
	}
	newest := runtime.NewUserMessage("the newest message")
	messages = append(messages, newest)

	c := New(Config{MaxContextTokens: 1000, Threshold: 0.5, PreserveRatio: 0.1})
	out := c.Compact(messages)

	if out[len(out)-1] != newest {
		t.Fatalf("expected newest message preserved as last element")
	}
}

func TestCompactTokenNonIncrease(t *testing.T) {
	var messages []*runtime.Message
	for i := 0; i < 50; i++ {
		messages = append(messages, runtime.NewUserMessage(strings.Repeat("x", 500)))
	}
	c := New(Config{MaxContextTokens: 2000, Threshold: 0.5, PreserveRatio: 0.2})
	before := DefaultEstimator{}.EstimateMessages(messages)
	out := c.Compact(messages)
	after := DefaultEstimator{}.EstimateMessages(out)
	if after > before {
		t.Fatalf("compaction must not increase estimated tokens: before=%d after=%d", before, after)
	}
}

func TestCompactIdempotent(t *testing.T) {
	var messages []*runtime.Message
	for i := 0; i < 50; i++ {
		messages = append(messages, runtime.NewUserMessage(strings.Repeat("x", 500)))
	}
	c := New(Config{MaxContextTokens: 2000, Threshold: 0.5, PreserveRatio: 0.2})
	once := c.Compact(messages)
	twice := c.Compact(once)
	if len(twice) != len(once) {
		t.Fatalf("expected idempotent compaction, got %d then %d messages", len(once), len(twice))
	}
}

func TestTruncateToolOutputsAddsNotice(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "line")
	}
	big := toolMsg("search_file_content", "call1", strings.Join(lines, "\n"))
	c := New(Config{TruncateLines: 30, ToolOutputBudget: 10})
	out := c.truncateToolOutputs([]*runtime.Message{big})
	if !strings.Contains(out[0].Content, "lines truncated") {
		t.Fatalf("expected truncation notice, got %q", out[0].Content)
	}
}

func TestCollapseToolRunsRequiresThreeConsecutive(t *testing.T) {
	messages := []*runtime.Message{
		toolMsg("read_file", "1", "a"),
		toolMsg("read_file", "2", "b"),
	}
	out := collapseToolRuns(messages)
	if len(out) != 2 {
		t.Fatalf("runs shorter than 3 must not collapse, got %d messages", len(out))
	}

	messages = append(messages, toolMsg("read_file", "3", "c"))
	out = collapseToolRuns(messages)
	if len(out) != 1 {
		t.Fatalf("run of exactly 3 same-tool messages must collapse to 1, got %d", len(out))
	}
}

func TestReconcileToolCallIDsDropsUnpairedCalls(t *testing.T) {
	call := runtime.ToolCall{ID: "missing", ToolName: "read_file"}
	assistant := assistantMsg("", call)
	messages := []*runtime.Message{assistant}
	reconcileToolCallIDs(messages)
	if len(assistant.ToolCalls) != 0 {
		t.Fatalf("expected unpaired tool call dropped, got %v", assistant.ToolCalls)
	}
}

func TestReconcileToolCallIDsKeepsPairedCalls(t *testing.T) {
	call := runtime.ToolCall{ID: "present", ToolName: "read_file"}
	assistant := assistantMsg("", call)
	reply := toolMsg("read_file", "present", "ok")
	messages := []*runtime.Message{assistant, reply}
	reconcileToolCallIDs(messages)
	if len(assistant.ToolCalls) != 1 {
		t.Fatalf("expected paired tool call kept, got %v", assistant.ToolCalls)
	}
}

func TestSummarizeFallbackNotice(t *testing.T) {
	c := New(Config{})
	dropped := []*runtime.Message{runtime.NewUserMessage("old")}
	conversational := []*runtime.Message{dropped[0], runtime.NewUserMessage("new")}
	snapshot := c.summarize(dropped, conversational)
	if !snapshot.IsSummary() {
		t.Fatalf("expected fallback snapshot marked as summary")
	}
	if !strings.Contains(snapshot.Content, "Context compacted") {
		t.Fatalf("expected fallback notice text, got %q", snapshot.Content)
	}
}

type stubSummarizer struct{ text string }

func (s stubSummarizer) Summarize(dropped []*runtime.Message) (*runtime.Message, error) {
	return runtime.NewSystemMessage(s.text), nil
}

func TestSummarizeUsesConfiguredSummarizer(t *testing.T) {
	c := New(Config{Summarizer: stubSummarizer{text: "custom snapshot"}})
	dropped := []*runtime.Message{runtime.NewUserMessage("old")}
	snapshot := c.summarize(dropped, dropped)
	if snapshot.Content != "custom snapshot" {
		t.Fatalf("expected configured summarizer output, got %q", snapshot.Content)
	}
	if !snapshot.IsSummary() {
		t.Fatalf("expected summarizer output marked as summary")
	}
}
