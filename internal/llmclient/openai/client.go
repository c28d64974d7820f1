// Package openai adapts OpenAI's chat completions API to the agent.LLMCaller
// contract. A PTC-Lisp turn needs exactly one text reply, not a token
// stream, so the client makes a single non-streaming call.
package openai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/andreasronge/ptc-runner-sub003/internal/agent"
)

// Config configures a New client. Model defaults to gpt-4o when left empty.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

func (c Config) sanitize() Config {
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	return c
}

// New returns an agent.LLMCaller backed by OpenAI's chat completions API.
func New(cfg Config) (agent.LLMCaller, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: API key is required")
	}
	cfg = cfg.sanitize()

	var client *openai.Client
	if cfg.BaseURL != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		clientCfg.BaseURL = cfg.BaseURL
		client = openai.NewClientWithConfig(clientCfg)
	} else {
		client = openai.NewClient(cfg.APIKey)
	}

	return func(ctx context.Context, req agent.LLMRequest) (agent.LLMResponse, error) {
		chatReq := openai.ChatCompletionRequest{
			Model:    cfg.Model,
			Messages: convertMessages(req.System, req.Messages),
		}

		resp, err := client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return agent.LLMResponse{}, classify(err)
		}
		if len(resp.Choices) == 0 {
			return agent.LLMResponse{}, &agent.LLMError{Kind: agent.LLMErrorServer, Message: "openai returned no choices"}
		}

		return agent.LLMResponse{
			Content: resp.Choices[0].Message.Content,
			Tokens: &agent.TokenUsage{
				Input:  resp.Usage.PromptTokens,
				Output: resp.Usage.CompletionTokens,
			},
		}, nil
	}, nil
}

func convertMessages(system string, msgs []agent.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// classify maps a transport failure to the *agent.LLMError kinds the retry
// layer recognises.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return &agent.LLMError{Kind: agent.LLMErrorRateLimit, Message: apiErr.Message, Cause: err}
		case 500, 502, 503, 504:
			return &agent.LLMError{Kind: agent.LLMErrorServer, Message: apiErr.Message, Cause: err}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &agent.LLMError{Kind: agent.LLMErrorTimeout, Message: "openai call deadline exceeded", Cause: err}
	}
	return &agent.LLMError{Kind: agent.LLMErrorUnknown, Message: err.Error(), Cause: err}
}
