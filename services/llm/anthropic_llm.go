package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	anthropicAPIVersion = "2023-06-01"
	defaultBaseURL      = "https://api.anthropic.com/v1/messages"
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      []systemBlock      `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
	StopSeqs    []string           `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
	Usage   anthropicUsage     `json:"usage"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type systemBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"` // Must be "ephemeral"
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// --- Client Implementation ---

type AnthropicClient struct {
	httpClient *http.Client
	apiKey     string
}

func NewAnthropicClient() (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")

	// 1. Robust Secret Loading
	if apiKey == "" {
		secretPath := "/run/secrets/anthropic_api_key"
		if content, err := os.ReadFile(secretPath); err == nil {
			apiKey = strings.TrimSpace(string(content))
			slog.Info("Read Anthropic API Key from Podman Secrets")
		}
	}

	// 2. Graceful Failure
	if apiKey == "" {
		slog.Warn("Anthropic API Key is missing.")
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is missing")
	}

	return &AnthropicClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
	}, nil
}

func (a *AnthropicClient) Name() string { return "anthropic" }

// Complete implements the Client interface.
func (a *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	// Handle System Prompt with Caching
	var systemBlocks []systemBlock
	if req.System != "" {
		block := systemBlock{
			Type: "text",
			Text: req.System,
		}
		if len(req.System) > 1024 {
			block.CacheControl = &cacheControl{Type: "ephemeral"}
		}
		systemBlocks = append(systemBlocks, block)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	temp := req.Temperature
	reqPayload := anthropicRequest{
		Model:       req.Model,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		System:      systemBlocks,
		MaxTokens:   maxTokens,
		Temperature: &temp,
		StopSeqs:    req.Stop,
	}

	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", defaultBaseURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)
	httpReq.Header.Set("content-type", "application/json")

	slog.Debug("Sending REST request to Anthropic", "model", req.Model)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Backend: "anthropic", Err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Backend:    "anthropic",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, string(bodyBytes)),
		}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if apiResp.Error != nil {
		return nil, &ProviderError{
			Backend: "anthropic",
			Err:     fmt.Errorf("anthropic API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message),
		}
	}

	if len(apiResp.Content) == 0 {
		return nil, &ProviderError{Backend: "anthropic", Err: fmt.Errorf("received empty content from Anthropic")}
	}

	finalText := ""
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			finalText += block.Text
		}
	}

	if finalText == "" {
		return nil, &ProviderError{Backend: "anthropic", Err: fmt.Errorf("received content but no text block found")}
	}

	return &CompletionResponse{
		Text:             finalText,
		PromptTokens:     apiResp.Usage.InputTokens,
		CompletionTokens: apiResp.Usage.OutputTokens,
	}, nil
}
