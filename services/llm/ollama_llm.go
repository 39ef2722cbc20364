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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("aleutian.llm.ollama") // Specific tracer name

type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []Message              `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         Message `json:"message"`
	CreatedAt       string  `json:"created_at"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

func NewOllamaClient() (*OllamaClient, error) {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("OLLAMA_BASE_URL environment variable not set")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	slog.Info("Initializing Ollama client", "base_url", baseURL)
	return &OllamaClient{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    baseURL,
	}, nil
}

func (o *OllamaClient) Name() string { return "ollama" }

// Complete implements the Client interface.
func (o *OllamaClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, span := tracer.Start(ctx, "OllamaClient.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", req.Model))

	slog.Debug("Generating text via Ollama", "model", req.Model)
	chatURL := o.baseURL + "/api/chat"

	options := map[string]interface{}{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if len(req.Stop) > 0 {
		options["stop"] = req.Stop
	}

	var messages []Message
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	messages = append(messages, Message{Role: "user", Content: req.Prompt})

	payload := ollamaChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   false,
		Options:  options,
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request to Ollama: %w", err)
	}

	// Use NewRequestWithContext to respect context cancellation/timeout
	httpReq, err := http.NewRequestWithContext(ctx, "POST", chatURL, bytes.NewBuffer(reqBody))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create chat request to Ollama: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &ProviderError{Backend: "ollama", Err: fmt.Errorf("failed to send the request to %s: %w", chatURL, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read response body from Ollama: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			var errResp struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(respBody, &errResp); err == nil && strings.Contains(errResp.Error, "model") && strings.Contains(errResp.Error, "not found") {
				slog.Warn("Ollama model not found", "model", req.Model)
				// Return a specific, user-friendly error
				return nil, &ProviderError{
					Backend:    "ollama",
					StatusCode: resp.StatusCode,
					Err:        fmt.Errorf("model '%s' not found. Please run: 'ollama pull %s'", req.Model, req.Model),
				}
			}
		}
		slog.Error("Ollama chat returned an error", "status_code", resp.StatusCode,
			"response", string(respBody))
		return nil, &ProviderError{
			Backend:    "ollama",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("ollama chat failed with status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var ollamaResp ollamaChatResponse
	if err = json.Unmarshal(respBody, &ollamaResp); err != nil {
		slog.Error("Failed to parse JSON chat response from Ollama", "error", err,
			"response", string(respBody))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to parse Ollama chat response: %w", err)
	}
	if ollamaResp.Message.Role != "assistant" {
		slog.Warn("Ollama chat response message role was not 'assistant'", "role", ollamaResp.Message.Role)
	}

	return &CompletionResponse{
		Text:             ollamaResp.Message.Content,
		PromptTokens:     ollamaResp.PromptEvalCount,
		CompletionTokens: ollamaResp.EvalCount,
	}, nil
}
