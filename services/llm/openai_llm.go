package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API Key from Podman Secrets")
		} else {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	slog.Info("Initializing OpenAI client")
	return &OpenAIClient{client: openai.NewClient(apiKey)}, nil
}

func (o *OpenAIClient) Name() string { return "openai" }

// Complete implements the Client interface.
func (o *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	slog.Debug("Generating text via OpenAI", "model", req.Model)

	system := req.System
	if system == "" {
		system = "You are a helpful assistant."
	}
	apiReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		apiReq.MaxCompletionTokens = req.MaxTokens
	}
	if len(req.Stop) > 0 {
		apiReq.Stop = req.Stop
	}

	resp, err := o.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		statusCode := 0
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			statusCode = apiErr.HTTPStatusCode
		}
		return nil, &ProviderError{Backend: "openai", StatusCode: statusCode, Err: err}
	}

	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices or empty content")
		return nil, &ProviderError{Backend: "openai", Err: fmt.Errorf("OpenAI returned no choices")}
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return &CompletionResponse{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
