// Package anthropic adapts the Anthropic Messages API to the agent.LLMCaller
// contract. It is one concrete, optional LLMCaller the core runtime never
// imports directly; a PTC-Lisp turn needs exactly one text reply, so the
// client makes a single non-streaming call.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/andreasronge/ptc-runner-sub003/internal/agent"
)

// Config configures a New client. Model and MaxTokens default to
// claude-sonnet-4-20250514 / 4096 when left zero.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
}

func (c Config) sanitize() Config {
	if c.Model == "" {
		c.Model = "claude-sonnet-4-20250514"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	return c
}

// New returns an agent.LLMCaller backed by the Anthropic Messages API.
func New(cfg Config) (agent.LLMCaller, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	cfg = cfg.sanitize()

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return func(ctx context.Context, req agent.LLMRequest) (agent.LLMResponse, error) {
		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(cfg.Model),
			MaxTokens: cfg.MaxTokens,
			Messages:  convertMessages(req.Messages),
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}

		msg, err := client.Messages.New(ctx, params)
		if err != nil {
			return agent.LLMResponse{}, classify(err)
		}

		var text strings.Builder
		for _, block := range msg.Content {
			if tb := block.AsText(); tb.Text != "" {
				text.WriteString(tb.Text)
			}
		}

		return agent.LLMResponse{
			Content: text.String(),
			Tokens: &agent.TokenUsage{
				Input:         int(msg.Usage.InputTokens),
				Output:        int(msg.Usage.OutputTokens),
				CacheCreation: int(msg.Usage.CacheCreationInputTokens),
				CacheRead:     int(msg.Usage.CacheReadInputTokens),
			},
		}, nil
	}, nil
}

func convertMessages(msgs []agent.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

// classify maps a transport failure to the *agent.LLMError kinds the retry
// layer recognises.
func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return &agent.LLMError{Kind: agent.LLMErrorRateLimit, Message: apiErr.Error(), Cause: err}
		case 500, 502, 503, 504:
			return &agent.LLMError{Kind: agent.LLMErrorServer, Message: apiErr.Error(), Cause: err}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &agent.LLMError{Kind: agent.LLMErrorTimeout, Message: "anthropic call deadline exceeded", Cause: err}
	}
	return &agent.LLMError{Kind: agent.LLMErrorUnknown, Message: err.Error(), Cause: err}
}
