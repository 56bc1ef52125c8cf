package compaction

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

// Summarizer produces a single structured-snapshot system message from
// the dropped message prefix. If unset, the compactor falls back to a
// fixed-format notice.
type Summarizer interface {
	Summarize(dropped []*runtime.Message) (*runtime.Message, error)
}

// Config parameterizes one Compactor.
type Config struct {
	MaxContextTokens    int
	Threshold           float64 // default 0.5
	ToolOutputBudget    int     // tokens, default 50000
	TruncateLines       int     // default 30
	PreserveRatio       float64 // default 0.3
	Aggressive          bool
	Estimator           TokenEstimator
	Summarizer          Summarizer
}

// DefaultConfig returns the documented compaction defaults for the
// given context window.
func DefaultConfig(maxContextTokens int) Config {
	return Config{
		MaxContextTokens: maxContextTokens,
		Threshold:        0.5,
		ToolOutputBudget: 50_000,
		TruncateLines:    30,
		PreserveRatio:    0.3,
		Estimator:        DefaultEstimator{},
	}
}

// Compactor implements the compression pipeline.
type Compactor struct {
	cfg Config
}

func New(cfg Config) *Compactor {
	if cfg.Estimator == nil {
		cfg.Estimator = DefaultEstimator{}
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.5
	}
	if cfg.ToolOutputBudget == 0 {
		cfg.ToolOutputBudget = 50_000
	}
	if cfg.TruncateLines == 0 {
		cfg.TruncateLines = 30
	}
	if cfg.PreserveRatio == 0 {
		cfg.PreserveRatio = 0.3
	}
	return &Compactor{cfg: cfg}
}

// ShouldCompact reports whether estimated usage has crossed the soft
// trigger threshold.
func (c *Compactor) ShouldCompact(messages []*runtime.Message) bool {
	if c.cfg.MaxContextTokens <= 0 {
		return false
	}
	tokens := c.cfg.Estimator.EstimateMessages(messages)
	return float64(tokens) >= c.cfg.Threshold*float64(c.cfg.MaxContextTokens)
}

// Compact runs the five-step pipeline, returning the compressed
// message list. It is a no-op (modulo the aggressive collapse pass,
// which is itself idempotent) if called on its own output.
func (c *Compactor) Compact(messages []*runtime.Message) []*runtime.Message {
	system, conversational := partition(messages)
	conversational = c.truncateToolOutputs(conversational)

	if c.cfg.Aggressive {
		conversational = collapseToolRuns(conversational)
	}

	keptTail := c.preserveRecentWindow(conversational)
	droppedCount := len(conversational) - len(keptTail)
	dropped := conversational[:droppedCount]

	var snapshot *runtime.Message
	if droppedCount > 0 {
		snapshot = c.summarize(dropped, conversational)
	}

	out := make([]*runtime.Message, 0, len(system)+1+len(keptTail))
	out = append(out, system...)
	if snapshot != nil {
		out = append(out, snapshot)
	}
	out = append(out, keptTail...)
	return reconcileToolCallIDs(out)
}

// partition splits messages into preserved system messages and
// everything else, in original order.
func partition(messages []*runtime.Message) (system, conversational []*runtime.Message) {
	for _, m := range messages {
		if m.Role == runtime.RoleSystem {
			system = append(system, m)
		} else {
			conversational = append(conversational, m)
		}
	}
	return system, conversational
}

// truncateToolOutputs shrinks any tool/function message whose content
// exceeds ToolOutputBudget tokens.
func (c *Compactor) truncateToolOutputs(messages []*runtime.Message) []*runtime.Message {
	out := make([]*runtime.Message, len(messages))
	for i, m := range messages {
		if m.Role != runtime.RoleTool {
			out[i] = m
			continue
		}
		tokens := c.cfg.Estimator.EstimateText(m.Content)
		if tokens <= c.cfg.ToolOutputBudget {
			out[i] = m
			continue
		}
		clone := *m
		clone.Content = truncateContent(m.Content, c.cfg.TruncateLines, c.cfg.ToolOutputBudget)
		out[i] = &clone
	}
	return out
}

func truncateContent(content string, truncateLines, tokenBudget int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > truncateLines {
		kept := lines[len(lines)-truncateLines:]
		notice := fmt.Sprintf("[... %d lines truncated ...]", len(lines)-truncateLines)
		return notice + "\n" + strings.Join(kept, "\n")
	}
	maxChars := tokenBudget * charsPerToken
	if len(content) > maxChars {
		notice := fmt.Sprintf("[... %d bytes truncated ...]", len(content)-maxChars)
		return notice + "\n" + content[len(content)-maxChars:]
	}
	return content
}

// collapseToolRuns implements the aggressive variant: runs of >= 3
// consecutive tool messages sharing the same tool name are collapsed
// into one synthesized summary message.
func collapseToolRuns(messages []*runtime.Message) []*runtime.Message {
	var out []*runtime.Message
	i := 0
	for i < len(messages) {
		m := messages[i]
		if m.Role != runtime.RoleTool {
			out = append(out, m)
			i++
			continue
		}
		j := i
		for j < len(messages) && messages[j].Role == runtime.RoleTool && messages[j].Name == m.Name {
			j++
		}
		run := messages[i:j]
		if len(run) < 3 {
			out = append(out, run...)
		} else {
			out = append(out, synthesizeToolRunSummary(run))
		}
		i = j
	}
	return out
}

func synthesizeToolRunSummary(run []*runtime.Message) *runtime.Message {
	first := run[0]
	last := run[len(run)-1]
	content := fmt.Sprintf("[%d consecutive %s calls collapsed]\nfirst: %s\nlast: %s",
		len(run), first.Name, preview(first.Content), preview(last.Content))
	return &runtime.Message{
		Role:       runtime.RoleTool,
		Name:       first.Name,
		ToolCallID: last.ToolCallID,
		Content:    content,
	}
}

func preview(s string) string {
	const maxPreview = 200
	if len(s) > maxPreview {
		return s[:maxPreview] + "..."
	}
	return s
}

// preserveRecentWindow walks conversational messages newest-to-oldest,
// accumulating until the preserved prefix would exceed PreserveRatio *
// tokens(conversational). The returned slice preserves original order.
func (c *Compactor) preserveRecentWindow(conversational []*runtime.Message) []*runtime.Message {
	if len(conversational) == 0 {
		return conversational
	}
	totalTokens := c.cfg.Estimator.EstimateMessages(conversational)
	budget := c.cfg.PreserveRatio * float64(totalTokens)

	kept := 0
	accumulated := 0
	for i := len(conversational) - 1; i >= 0; i-- {
		tokens := c.cfg.Estimator.EstimateMessages([]*runtime.Message{conversational[i]})
		if kept > 0 && float64(accumulated+tokens) > budget {
			break
		}
		accumulated += tokens
		kept++
	}
	if kept == 0 {
		kept = 1
	}
	return conversational[len(conversational)-kept:]
}

func (c *Compactor) summarize(dropped, conversational []*runtime.Message) *runtime.Message {
	if c.cfg.Summarizer != nil {
		if snapshot, err := c.cfg.Summarizer.Summarize(dropped); err == nil && snapshot != nil {
			markSummary(snapshot)
			return snapshot
		}
	}
	droppedTokens := c.cfg.Estimator.EstimateMessages(dropped)
	kept := len(conversational) - len(dropped)
	notice := fmt.Sprintf("[Context compacted: %d messages (~%d tokens) removed. Preserved newest %d messages.]",
		len(dropped), droppedTokens, kept)
	msg := runtime.NewSystemMessage(notice)
	markSummary(msg)
	return msg
}

func markSummary(m *runtime.Message) {
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	m.Metadata[runtime.SummaryMetadataKey] = true
}

// reconcileToolCallIDs enforces the both-or-neither invariant between
// assistant messages' tool_calls and the tool messages replying to
// them: any assistant tool-call id with no matching tool reply in the
// compressed set is dropped from that assistant message.
func reconcileToolCallIDs(messages []*runtime.Message) []*runtime.Message {
	present := map[string]bool{}
	for _, m := range messages {
		if m.Role == runtime.RoleTool && m.ToolCallID != "" {
			present[m.ToolCallID] = true
		}
	}
	for _, m := range messages {
		if m.Role != runtime.RoleAssistant || len(m.ToolCalls) == 0 {
			continue
		}
		filtered := m.ToolCalls[:0:0]
		for _, tc := range m.ToolCalls {
			if present[tc.ID] {
				filtered = append(filtered, tc)
			}
		}
		m.ToolCalls = filtered
	}
	return messages
}
