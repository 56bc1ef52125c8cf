package runtime

import "testing"

func TestNewSystemAndUserMessages(t *testing.T) {
	sys := NewSystemMessage("be terse")
	if sys.Role != RoleSystem || sys.Content != "be terse" {
		t.Fatalf("unexpected system message: %+v", sys)
	}
	user := NewUserMessage("hello")
	if user.Role != RoleUser || user.Content != "hello" {
		t.Fatalf("unexpected user message: %+v", user)
	}
}

func TestNewToolMessageUsesContentForText(t *testing.T) {
	call := ToolCall{ID: "1", ToolName: "read_file"}
	result := ToolResult{LLMContent: TextContent("file body")}
	m := NewToolMessage(call, result)
	if m.Role != RoleTool || m.ToolCallID != "1" || m.Name != "read_file" {
		t.Fatalf("unexpected tool message header: %+v", m)
	}
	if m.Content != "file body" || m.Parts != nil {
		t.Fatalf("expected text content populated and parts left nil, got %+v", m)
	}
}

func TestNewToolMessageUsesPartsForInlineData(t *testing.T) {
	call := ToolCall{ID: "2", ToolName: "read_file"}
	result := ToolResult{LLMContent: InlineDataContent("image/png", []byte{1, 2, 3})}
	m := NewToolMessage(call, result)
	if m.Content != "" {
		t.Fatalf("expected empty content for inline result, got %q", m.Content)
	}
	if len(m.Parts) != 1 || m.Parts[0].InlineData == nil || m.Parts[0].InlineData.MimeType != "image/png" {
		t.Fatalf("expected one inline-data part, got %+v", m.Parts)
	}
}

func TestIsSummaryNilSafety(t *testing.T) {
	var nilMsg *Message
	if nilMsg.IsSummary() {
		t.Fatalf("expected nil message to not be a summary")
	}

	noMetadata := &Message{Role: RoleAssistant}
	if noMetadata.IsSummary() {
		t.Fatalf("expected message with no metadata to not be a summary")
	}

	wrongType := &Message{Role: RoleAssistant, Metadata: map[string]any{SummaryMetadataKey: "yes"}}
	if wrongType.IsSummary() {
		t.Fatalf("expected non-bool metadata value to not count as a summary")
	}

	notSet := &Message{Role: RoleAssistant, Metadata: map[string]any{"other": true}}
	if notSet.IsSummary() {
		t.Fatalf("expected unrelated metadata key to not count as a summary")
	}

	summary := &Message{Role: RoleAssistant, Metadata: map[string]any{SummaryMetadataKey: true}}
	if !summary.IsSummary() {
		t.Fatalf("expected metadata with true bool to be a summary")
	}

	falseSet := &Message{Role: RoleAssistant, Metadata: map[string]any{SummaryMetadataKey: false}}
	if falseSet.IsSummary() {
		t.Fatalf("expected metadata with false bool to not be a summary")
	}
}

func TestContentValueIsInline(t *testing.T) {
	text := TextContent("hi")
	if text.IsInline() {
		t.Fatalf("expected text content to not be inline")
	}
	inline := InlineDataContent("text/plain", []byte("hi"))
	if !inline.IsInline() {
		t.Fatalf("expected inline-data content to report IsInline")
	}
}

func TestNewAgentStateInitializesStorage(t *testing.T) {
	s := NewAgentState()
	if s.Storage == nil {
		t.Fatalf("expected storage map to be initialized")
	}
	s.Storage["key"] = "value"
	if s.Storage["key"] != "value" {
		t.Fatalf("expected storage map to be writable")
	}
	if len(s.Messages) != 0 || s.TurnCount != 0 || s.TerminateReason != "" {
		t.Fatalf("expected a fresh state to have zero-valued fields, got %+v", s)
	}
}

func TestAgentStateAppend(t *testing.T) {
	s := NewAgentState()
	first := NewUserMessage("hi")
	second := NewSystemMessage("be terse")
	s.Append(first)
	s.Append(second)
	if len(s.Messages) != 2 || s.Messages[0] != first || s.Messages[1] != second {
		t.Fatalf("expected messages appended in order, got %+v", s.Messages)
	}
}

func TestTextPartAndInlineDataPart(t *testing.T) {
	tp := TextPart("hello")
	if tp.Text != "hello" || tp.InlineData != nil {
		t.Fatalf("unexpected text part: %+v", tp)
	}
	ip := InlineDataPart("image/png", []byte{9})
	if ip.InlineData == nil || ip.InlineData.MimeType != "image/png" || ip.Text != "" {
		t.Fatalf("unexpected inline data part: %+v", ip)
	}
}
