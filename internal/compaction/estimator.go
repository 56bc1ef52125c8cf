// Package compaction implements the context compactor: a pluggable
// token estimator and a five-step compression pipeline that triggers
// when estimated token usage crosses a soft threshold.
package compaction

import (
	"encoding/json"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

const (
	charsPerToken        = 4
	perMessageOverhead    = 10
)

// TokenEstimator estimates the token cost of a message list. Any
// monotonic estimator satisfies the compactor's invariants; the exact
// constant does not matter.
type TokenEstimator interface {
	EstimateMessages(messages []*runtime.Message) int
	EstimateText(text string) int
}

// DefaultEstimator approximates 4 characters per token for text, plus a
// constant ~10-token overhead per message for role/name framing, plus
// the serialized size of any tool calls.
type DefaultEstimator struct{}

func (DefaultEstimator) EstimateText(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

func (e DefaultEstimator) EstimateMessages(messages []*runtime.Message) int {
	total := 0
	for _, m := range messages {
		total += perMessageOverhead
		total += e.EstimateText(m.Content)
		for _, part := range m.Parts {
			total += e.EstimateText(part.Text)
			if part.InlineData != nil {
				total += e.EstimateText(string(part.InlineData.Data))
			}
		}
		for _, tc := range m.ToolCalls {
			total += e.EstimateText(tc.ToolName)
			total += e.EstimateText(toolCallArgsText(tc))
		}
	}
	return total
}

func toolCallArgsText(tc runtime.ToolCall) string {
	if len(tc.Parameters) == 0 {
		return ""
	}
	var compact map[string]any
	if err := json.Unmarshal(tc.Parameters, &compact); err != nil {
		return string(tc.Parameters)
	}
	b, err := json.Marshal(compact)
	if err != nil {
		return string(tc.Parameters)
	}
	return string(b)
}
