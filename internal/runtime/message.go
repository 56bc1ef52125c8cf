// Package runtime defines the wire-level data model shared by the agent
// loop, the middleware pipeline, and the tool catalog: messages, tool
// calls, tool results, and the per-run agent state.
package runtime

import "encoding/json"

// Role identifies the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentPart is a single piece of message content: either text, or an
// inline-data part carrying base64-decoded bytes with a MIME type (used
// for images/audio/PDF surfaced by read-file).
type ContentPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inline_data,omitempty"`
}

// Blob is base64-carrying inline data.
type Blob struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// TextPart builds a text-only ContentPart.
func TextPart(text string) ContentPart { return ContentPart{Text: text} }

// InlineDataPart builds an inline-data ContentPart.
func InlineDataPart(mimeType string, data []byte) ContentPart {
	return ContentPart{InlineData: &Blob{MimeType: mimeType, Data: data}}
}

// ToolCall is the model's request to invoke a tool.
type ToolCall struct {
	ID         string          `json:"id"`
	ToolName   string          `json:"tool_name"`
	Parameters json.RawMessage `json:"parameters"`
}

// ToolResult is the outcome of dispatching a ToolCall.
//
// LLMContent is what gets serialized back into the conversation as the
// corresponding tool Message's content. ReturnDisplay is for human/UI
// surfaces only and never re-enters the model's context.
type ToolResult struct {
	LLMContent    ContentValue   `json:"llm_content"`
	ReturnDisplay string         `json:"return_display"`
	Error         *ToolError     `json:"error,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// ContentValue is either plain text or a single inline-data part. Tool
// results are almost always text; read-file is the one producer of
// inline data.
type ContentValue struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inline_data,omitempty"`
}

// TextContent builds a text ContentValue.
func TextContent(s string) ContentValue { return ContentValue{Text: s} }

// InlineDataContent builds an inline-data ContentValue.
func InlineDataContent(mimeType string, data []byte) ContentValue {
	return ContentValue{InlineData: &Blob{MimeType: mimeType, Data: data}}
}

// IsInline reports whether this value carries inline data rather than text.
func (c ContentValue) IsInline() bool { return c.InlineData != nil }

// Message is a tagged record in the conversation log.
type Message struct {
	Role Role `json:"role"`

	// Content is used when the message is plain text (the common case
	// for user/assistant/system messages). Parts is used instead when
	// the message carries structured content (e.g. a user message with
	// an inline-data attachment). Exactly one of Content/Parts should be
	// populated for non-tool messages.
	Content string        `json:"content,omitempty"`
	Parts   []ContentPart `json:"parts,omitempty"`

	// ToolCalls is populated on assistant messages that requested tool
	// execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and Name identify which call a tool-role message replies to.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`

	// Metadata is a free-form side channel used by the compactor to mark
	// summary/snapshot messages and by middlewares for bookkeeping; it
	// never affects wire serialization to the model beyond Content/Parts.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewSystemMessage builds a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage builds a user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewToolMessage builds a tool-reply message for the given call.
func NewToolMessage(call ToolCall, result ToolResult) *Message {
	m := &Message{Role: RoleTool, ToolCallID: call.ID, Name: call.ToolName}
	if result.LLMContent.IsInline() {
		m.Parts = []ContentPart{{InlineData: result.LLMContent.InlineData}}
	} else {
		m.Content = result.LLMContent.Text
	}
	return m
}

// IsSummary reports whether this message is a compactor-generated
// snapshot/notice, identified by the SummaryMetadataKey.
func (m *Message) IsSummary() bool {
	if m == nil || m.Metadata == nil {
		return false
	}
	v, ok := m.Metadata[SummaryMetadataKey]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// SummaryMetadataKey marks a message as a compactor-produced snapshot or
// fallback notice rather than ordinary conversation content.
const SummaryMetadataKey = "codeagent_summary"

// TerminateReason enumerates why the agent loop ended.
type TerminateReason string

const (
	TerminateGoal                 TerminateReason = "GOAL"
	TerminateMaxTurns             TerminateReason = "MAX_TURNS"
	TerminateTimeout              TerminateReason = "TIMEOUT"
	TerminateNoCompleteTaskCall   TerminateReason = "ERROR_NO_COMPLETE_TASK_CALL"
	TerminateError                TerminateReason = "ERROR"
	TerminateCancelled            TerminateReason = "CANCELLED"
)

// AgentState is process-scoped state whose lifetime is a single run()
// call: the conversation, the turn counter, the (possibly still empty)
// terminate reason, and a free-form scratch map middlewares use for
// per-run counters (e.g. the termination grace-period counter).
type AgentState struct {
	Messages        []*Message
	TurnCount       int
	TerminateReason TerminateReason
	FinalResult     string
	Storage         map[string]any
}

// NewAgentState creates an empty state with an initialized storage map.
func NewAgentState() *AgentState {
	return &AgentState{Storage: make(map[string]any)}
}

// Append adds a message to the conversation.
func (s *AgentState) Append(m *Message) {
	s.Messages = append(s.Messages, m)
}

// ParsedResponse is what the LLM provider returns for one turn: optional
// text and zero or more tool calls.
type ParsedResponse struct {
	Text      string     `json:"text,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// TodoStatus is the lifecycle state of one write-todos entry.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
	TodoCancelled  TodoStatus = "cancelled"
)

// TodoItem is one entry of a write-todos call.
type TodoItem struct {
	Description string     `json:"description"`
	Status      TodoStatus `json:"status"`
}
