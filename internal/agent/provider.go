package agent

import "context"

// Message is one entry of the conversation the LLM sees: role is one of
// "system", "user", "assistant".
type Message struct {
	Role    string
	Content string
}

// TokenUsage reports the token counts an LLM callable may optionally
// return alongside its content.
type TokenUsage struct {
	Input         int
	Output        int
	CacheCreation int
	CacheRead     int
}

// LLMRequest is the record passed to an LLMCaller on every turn.
type LLMRequest struct {
	System    string
	Messages  []Message
	Turn      int
	ToolNames []string
	Cache     bool
	LLMOpts   map[string]any
}

// LLMResponse is the successful result of an LLMCaller invocation.
type LLMResponse struct {
	Content string
	Tokens  *TokenUsage
}

// LLMCaller is the opaque, user-supplied callable that talks to an actual
// model backend. It is the only blocking operation in a turn.
// Implementations in internal/llmclient/anthropic and
// internal/llmclient/openai adapt this to concrete provider SDKs.
type LLMCaller func(ctx context.Context, req LLMRequest) (LLMResponse, error)
