package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Message is a generic chat message shared by every backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries everything a backend needs for one call.
// Model is the concrete model name, already resolved from a tier.
type CompletionRequest struct {
	Model       string   `json:"model"`
	System      string   `json:"system,omitempty"`
	Prompt      string   `json:"prompt"`
	Temperature float32  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// CompletionResponse is the normalized result of one model call.
// Token counts come from the backend's own usage accounting; backends
// that do not report usage return zeros.
type CompletionResponse struct {
	Text             string `json:"text"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Client defines the standard interface for any LLM backend.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// ProviderError wraps a transport, auth, or quota failure from an LLM
// backend so callers can distinguish upstream trouble from bad input.
type ProviderError struct {
	Backend    string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider error (status %d): %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider error: %v", e.Backend, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewClientFromEnv selects a backend based on LLM_BACKEND_TYPE.
func NewClientFromEnv() (Client, error) {
	backendType := os.Getenv("LLM_BACKEND_TYPE")

	switch backendType {
	case "openai", "":
		if backendType == "" {
			slog.Warn("LLM_BACKEND_TYPE not set, defaulting to openai")
		}
		return NewOpenAIClient()
	case "ollama":
		return NewOllamaClient()
	case "claude", "anthropic":
		return NewAnthropicClient()
	default:
		return nil, fmt.Errorf("unknown LLM_BACKEND_TYPE %q", backendType)
	}
}
