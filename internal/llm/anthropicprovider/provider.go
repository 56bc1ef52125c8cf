// Package anthropicprovider adapts the Anthropic Messages API to the
// agent.LLMProvider contract via a single blocking
// chat(messages, tools) -> ParsedResponse call.
package anthropicprovider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	aagent "github.com/haasonsaas/codeagent/internal/agent"
	"github.com/haasonsaas/codeagent/internal/runtime"
)

// Config configures a Provider.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// Provider implements agent.LLMProvider against Anthropic's API.
type Provider struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropicprovider: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Provider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Chat implements agent.LLMProvider.
func (p *Provider) Chat(ctx context.Context, messages []*runtime.Message, tools []aagent.ToolSchema) (runtime.ParsedResponse, error) {
	var system string
	var converted []anthropic.MessageParam
	for _, m := range messages {
		if m.Role == runtime.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		block, err := convertMessage(m)
		if err != nil {
			return runtime.ParsedResponse{}, err
		}
		converted = append(converted, block)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  converted,
		MaxTokens: int64(p.maxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: system}}
	}
	if len(tools) > 0 {
		converted, err := convertTools(tools)
		if err != nil {
			return runtime.ParsedResponse{}, err
		}
		params.Tools = converted
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return runtime.ParsedResponse{}, fmt.Errorf("anthropicprovider: %w", err)
	}

	return parseResponse(msg), nil
}

func convertMessage(m *runtime.Message) (anthropic.MessageParam, error) {
	var content []anthropic.ContentBlockParamUnion

	if m.Role == runtime.RoleTool {
		content = append(content, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
		return anthropic.NewUserMessage(content...), nil
	}

	if m.Content != "" {
		content = append(content, anthropic.NewTextBlock(m.Content))
	}
	for _, tc := range m.ToolCalls {
		var input map[string]any
		if len(tc.Parameters) > 0 {
			if err := json.Unmarshal(tc.Parameters, &input); err != nil {
				return anthropic.MessageParam{}, fmt.Errorf("invalid tool call parameters: %w", err)
			}
		}
		content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.ToolName))
	}

	if m.Role == runtime.RoleAssistant {
		return anthropic.NewAssistantMessage(content...), nil
	}
	return anthropic.NewUserMessage(content...), nil
}

func convertTools(tools []aagent.ToolSchema) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s", t.Name)
		}
		param.OfTool.Description = anthropic.String(t.Description)
		result = append(result, param)
	}
	return result, nil
}

func parseResponse(msg *anthropic.Message) runtime.ParsedResponse {
	var resp runtime.ParsedResponse
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Text += variant.Text
		case anthropic.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, runtime.ToolCall{
				ID:         variant.ID,
				ToolName:   variant.Name,
				Parameters: json.RawMessage(variant.Input),
			})
		}
	}
	return resp
}
