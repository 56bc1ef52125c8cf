// Package interact implements ask_user: a batch of 1-4 clarifying
// questions posed to the operator, each validated against its declared
// type.
package interact

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haasonsaas/codeagent/internal/runtime"
)

const (
	minQuestions   = 1
	maxQuestions   = 4
	maxHeaderChars = 12
	minChoiceOpts  = 2
	maxChoiceOpts  = 4
)

// Question is one item of an ask_user call.
type Question struct {
	Question    string   `json:"question"`
	Header      string   `json:"header"`
	Type        string   `json:"type"` // "text" | "yesno" | "choice"
	Options     []string `json:"options,omitempty"`
	MultiSelect bool     `json:"multiSelect,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// Answerer is injected so the tool can be driven by a real UI, a CLI
// prompt, or a scripted test double without the tool itself knowing
// how answers are collected.
type Answerer func(ctx context.Context, questions []Question) ([]string, error)

// Tool implements ask_user.
type Tool struct {
	Answer Answerer
}

func NewTool(answer Answerer) *Tool { return &Tool{Answer: answer} }

func (t *Tool) Name() string        { return "ask_user" }
func (t *Tool) Description() string { return "Asks the operator 1-4 clarifying questions and returns their answers." }

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"questions": {
				"type": "array",
				"minItems": 1,
				"maxItems": 4,
				"items": {
					"type": "object",
					"properties": {
						"question": {"type": "string"},
						"header": {"type": "string", "maxLength": 12},
						"type": {"type": "string", "enum": ["choice", "text", "yesno"]},
						"options": {"type": "array", "items": {"type": "string"}},
						"multiSelect": {"type": "boolean"},
						"placeholder": {"type": "string"}
					},
					"required": ["question", "header", "type"]
				}
			}
		},
		"required": ["questions"]
	}`)
}

type askParams struct {
	Questions []Question `json:"questions"`
}

func (t *Tool) Invoke(ctx context.Context, raw json.RawMessage) runtime.ToolResult {
	var p askParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return runtime.NewToolError(runtime.ErrInvalidParameter, err.Error()).ErrorResult()
	}

	if len(p.Questions) < minQuestions || len(p.Questions) > maxQuestions {
		return runtime.NewToolError(runtime.ErrInvalidParameter,
			fmt.Sprintf("questions must contain between %d and %d entries, got %d", minQuestions, maxQuestions, len(p.Questions))).ErrorResult()
	}
	for i, q := range p.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return runtime.NewToolError(runtime.ErrInvalidParameter, fmt.Sprintf("questions[%d].question must not be empty", i)).ErrorResult()
		}
		if len(q.Header) > maxHeaderChars {
			return runtime.NewToolError(runtime.ErrInvalidParameter,
				fmt.Sprintf("questions[%d].header exceeds %d characters", i, maxHeaderChars)).ErrorResult()
		}
		switch q.Type {
		case "text", "yesno":
		case "choice":
			if len(q.Options) < minChoiceOpts || len(q.Options) > maxChoiceOpts {
				return runtime.NewToolError(runtime.ErrInvalidParameter,
					fmt.Sprintf("questions[%d] of type choice needs %d-%d options, got %d", i, minChoiceOpts, maxChoiceOpts, len(q.Options))).ErrorResult()
			}
		default:
			return runtime.NewToolError(runtime.ErrInvalidParameter, fmt.Sprintf("questions[%d].type %q is not recognized", i, q.Type)).ErrorResult()
		}
	}

	if t.Answer == nil {
		return runtime.NewToolError(runtime.ErrExecutionError, "no answerer is configured").ErrorResult()
	}

	answers, err := t.Answer(ctx, p.Questions)
	if err != nil {
		return runtime.NewToolError(runtime.ErrExecutionError, err.Error()).ErrorResult()
	}

	var sb strings.Builder
	for i, q := range p.Questions {
		answer := ""
		if i < len(answers) {
			answer = answers[i]
		}
		fmt.Fprintf(&sb, "%s: %s\n", q.Header, answer)
	}

	return runtime.ToolResult{
		LLMContent:    runtime.TextContent(sb.String()),
		ReturnDisplay: fmt.Sprintf("Asked %d question(s)", len(p.Questions)),
		Data:          map[string]any{"answers": answers},
	}
}
