// Package openaiprovider adapts the OpenAI chat completions API to the
// agent.LLMProvider contract via a single blocking
// CreateChatCompletion call.
package openaiprovider

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

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

// Provider implements agent.LLMProvider against the OpenAI chat
// completions API.
type Provider struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openaiprovider: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Chat implements agent.LLMProvider.
func (p *Provider) Chat(ctx context.Context, messages []*runtime.Message, tools []aagent.ToolSchema) (runtime.ParsedResponse, error) {
	converted, err := convertMessages(messages)
	if err != nil {
		return runtime.ParsedResponse{}, err
	}

	req := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: converted,
	}
	if p.maxTokens > 0 {
		req.MaxTokens = p.maxTokens
	}
	if len(tools) > 0 {
		req.Tools = convertTools(tools)
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return runtime.ParsedResponse{}, fmt.Errorf("openaiprovider: %w", err)
	}
	if len(resp.Choices) == 0 {
		return runtime.ParsedResponse{}, fmt.Errorf("openaiprovider: empty choices in response")
	}

	return parseChoice(resp.Choices[0]), nil
}

func convertMessages(messages []*runtime.Message) ([]openai.ChatCompletionMessage, error) {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case runtime.RoleSystem:
			result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Content})
		case runtime.RoleUser:
			result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case runtime.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			for _, tc := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.ToolName,
						Arguments: string(tc.Parameters),
					},
				})
			}
			result = append(result, msg)
		case runtime.RoleTool:
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		}
	}
	return result, nil
}

func convertTools(tools []aagent.ToolSchema) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		var schemaMap map[string]any
		if err := json.Unmarshal(t.Schema, &schemaMap); err != nil {
			schemaMap = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schemaMap,
			},
		}
	}
	return result
}

func parseChoice(choice openai.ChatCompletionChoice) runtime.ParsedResponse {
	resp := runtime.ParsedResponse{Text: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, runtime.ToolCall{
			ID:         tc.ID,
			ToolName:   tc.Function.Name,
			Parameters: json.RawMessage(tc.Function.Arguments),
		})
	}
	return resp
}
