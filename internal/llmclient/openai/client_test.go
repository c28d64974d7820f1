package openai

import (
	"context"
	"errors"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/andreasronge/ptc-runner-sub003/internal/agent"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New(empty config) error = nil, want missing-API-key error")
	}
}

func TestNewSucceedsWithAPIKey(t *testing.T) {
	if _, err := New(Config{APIKey: "sk-test"}); err != nil {
		t.Errorf("New() error = %v", err)
	}
}

func TestConfigSanitizeDefaultsModel(t *testing.T) {
	cfg := Config{APIKey: "sk-test"}.sanitize()
	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", cfg.Model)
	}
}

func TestConfigSanitizePreservesExplicitModel(t *testing.T) {
	cfg := Config{Model: "gpt-4o-mini"}.sanitize()
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want gpt-4o-mini (explicit value kept)", cfg.Model)
	}
}

func TestConvertMessagesPrependsSystemAndMapsRoles(t *testing.T) {
	out := convertMessages("be helpful", []agent.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	if out[0].Role != goopenai.ChatMessageRoleSystem || out[0].Content != "be helpful" {
		t.Errorf("out[0] = %+v, want system/be helpful", out[0])
	}
	if out[1].Role != goopenai.ChatMessageRoleUser {
		t.Errorf("out[1].Role = %q, want user", out[1].Role)
	}
	if out[2].Role != goopenai.ChatMessageRoleAssistant {
		t.Errorf("out[2].Role = %q, want assistant", out[2].Role)
	}
}

func TestConvertMessagesOmitsSystemWhenEmpty(t *testing.T) {
	out := convertMessages("", []agent.Message{{Role: "user", Content: "hi"}})
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1 (no system message)", len(out))
	}
}

func TestClassifyRateLimitAndServerErrors(t *testing.T) {
	tests := []struct {
		name string
		code int
		want agent.LLMErrorKind
	}{
		{"rate limit", 429, agent.LLMErrorRateLimit},
		{"server error 500", 500, agent.LLMErrorServer},
		{"server error 503", 503, agent.LLMErrorServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := &goopenai.APIError{HTTPStatusCode: tt.code, Message: "boom"}
			got := classify(apiErr)
			var llmErr *agent.LLMError
			if !errors.As(got, &llmErr) || llmErr.Kind != tt.want {
				t.Errorf("classify() = %v, want Kind %v", got, tt.want)
			}
		})
	}
}

func TestClassifyDeadlineExceeded(t *testing.T) {
	got := classify(context.DeadlineExceeded)
	var llmErr *agent.LLMError
	if !errors.As(got, &llmErr) || llmErr.Kind != agent.LLMErrorTimeout {
		t.Errorf("classify(DeadlineExceeded) = %v, want Kind timeout", got)
	}
}

func TestClassifyUnknownFallsThrough(t *testing.T) {
	got := classify(errors.New("some opaque transport failure"))
	var llmErr *agent.LLMError
	if !errors.As(got, &llmErr) || llmErr.Kind != agent.LLMErrorUnknown {
		t.Errorf("classify() = %v, want Kind unknown", got)
	}
}
