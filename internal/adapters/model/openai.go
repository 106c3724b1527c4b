// Package model provides ModelService adapters: an OpenAI-compatible
// client for real runs and a scripted stub for tests and offline work.
package model

import (
	"context"
	"encoding/json"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/factmesh/factmesh/internal/core"
)

// OpenAIConfig configures the OpenAI-compatible adapter. BaseURL allows
// pointing at any compatible endpoint.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	RatePerSec  float64
	RateBurst   int
}

// OpenAI is a core.ModelService backed by a chat-completions endpoint.
// A token-bucket limiter spaces out calls across the parallel
// specialist runs sharing one adapter.
type OpenAI struct {
	client  *openai.Client
	cfg     OpenAIConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewOpenAI creates the adapter.
func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, core.NewValidationError("missing_api_key", "model.api_key is required for the openai provider")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 4
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client:  openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RateBurst),
		logger:  logger,
	}, nil
}

// Name returns the provider name.
func (o *OpenAI) Name() string { return "openai" }

// Ping verifies the endpoint and credentials with a lightweight call.
func (o *OpenAI) Ping(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return core.NewModelError("ping_failed", "model endpoint unreachable").WithCause(err)
	}
	return nil
}

// Invoke sends one chat turn and maps the response back to the port
// types.
func (o *OpenAI) Invoke(ctx context.Context, systemPrompt string, history []core.Message, tools []core.ToolDefinition) (*core.ModelResponse, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		Messages:    toChatMessages(systemPrompt, history),
		Tools:       toChatTools(tools),
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, core.NewModelError("chat_completion_failed", "model invocation failed").WithCause(err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.NewModelError("empty_response", "model returned no choices")
	}

	out := fromChatMessage(resp.Choices[0].Message)
	out.TokensIn = resp.Usage.PromptTokens
	out.TokensOut = resp.Usage.CompletionTokens
	return out, nil
}

func toChatMessages(systemPrompt string, history []core.Message) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	for _, m := range history {
		// Tool results become one tool message per result.
		if len(m.ToolResults) > 0 {
			for _, res := range m.ToolResults {
				msgs = append(msgs, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    res.Content,
					ToolCallID: res.ToolCallID,
					Name:       res.Name,
				})
			}
			continue
		}

		msg := openai.ChatCompletionMessage{Content: m.Content}
		switch m.Role {
		case core.RoleAssistant:
			msg.Role = openai.ChatMessageRoleAssistant
		default:
			msg.Role = openai.ChatMessageRoleUser
		}
		for _, call := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: string(call.Arguments),
				},
			})
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func toChatTools(tools []core.ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

func fromChatMessage(msg openai.ChatCompletionMessage) *core.ModelResponse {
	resp := &core.ModelResponse{Text: msg.Content}
	for _, call := range msg.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, core.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		})
	}
	return resp
}
