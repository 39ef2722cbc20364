// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
	"github.com/AleutianAI/AleutianReason/services/reasoner/observability"
)

// ChatCompletionRequest is the chat-shaped compatibility request. Tools
// that already speak the common chat completions wire format can point at
// this service and get aggregated reasoning behind the same shape.
type ChatCompletionRequest struct {
	Messages           []llm.Message `json:"messages"`
	Model              string        `json:"model,omitempty"`
	NumSelfConsistency *int          `json:"num_self_consistency,omitempty"`
	NumCot             *int          `json:"num_cot,omitempty"`
	Temperature        *float32      `json:"temperature,omitempty"`
	TimeoutSeconds     int           `json:"timeout_seconds,omitempty"`
}

// ChatChoice is one completion choice in the chat-shaped response.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      llm.Message `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatCompletionResponse mirrors the common chat completions shape, with
// the full aggregation record attached for callers that want it.
type ChatCompletionResponse struct {
	ID          string                         `json:"id"`
	Object      string                         `json:"object"`
	Created     int64                          `json:"created"`
	Model       string                         `json:"model"`
	Choices     []ChatChoice                   `json:"choices"`
	Usage       datatypes.TokenUsage           `json:"usage"`
	Aggregation *datatypes.AggregationResponse `json:"aggregation"`
}

// HandleChatCompletions serves POST /v1/chat/completions by flattening
// the conversation into an aggregation request.
func HandleChatCompletions(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var chatReq ChatCompletionRequest
		if err := c.ShouldBindJSON(&chatReq); err != nil {
			recordFailure(deps, c, observability.EndpointChat, start,
				observability.ErrorCodeValidation, "", http.StatusBadRequest, "Invalid request body")
			return
		}

		req, err := chatToAggregation(&chatReq)
		if err != nil {
			recordFailure(deps, c, observability.EndpointChat, start,
				observability.ErrorCodeValidation, "", http.StatusBadRequest, err.Error())
			return
		}

		if deps.Metrics != nil {
			deps.Metrics.RequestStarted()
			defer deps.Metrics.RequestEnded()
		}

		resp, err := deps.Engine.RunAggregation(c.Request.Context(), req)
		if err != nil {
			status := datatypes.HTTPStatusFor(err)
			slog.Error("chat aggregation failed", "request_id", req.RequestID, "status", status, "error", err)
			recordFailure(deps, c, observability.EndpointChat, start,
				errorCodeFor(err), req.RequestID, status, err.Error())
			return
		}

		recordSuccess(deps, c, observability.EndpointChat, start, req, resp)
		c.JSON(http.StatusOK, &ChatCompletionResponse{
			ID:      resp.ResponseID,
			Object:  "chat.completion",
			Created: resp.Timestamp / 1000,
			Model:   resp.ModelUsed,
			Choices: []ChatChoice{
				{
					Index:        0,
					Message:      llm.Message{Role: "assistant", Content: resp.FinalAnswer},
					FinishReason: "stop",
				},
			},
			Usage:       resp.Usage,
			Aggregation: resp,
		})
	}
}

// chatToAggregation flattens a chat transcript into a single prompt:
// system messages become the system prompt, the last user message is the
// question, and anything in between is folded in as conversation context.
func chatToAggregation(chatReq *ChatCompletionRequest) (*datatypes.AggregationRequest, error) {
	var systemParts []string
	lastUser := -1
	for i, m := range chatReq.Messages {
		switch m.Role {
		case "system":
			systemParts = append(systemParts, m.Content)
		case "user":
			lastUser = i
		case "assistant":
			// folded into the transcript below
		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}
	if lastUser < 0 {
		return nil, fmt.Errorf("messages must contain at least one user message")
	}

	var b strings.Builder
	for _, m := range chatReq.Messages[:lastUser] {
		if m.Role == "system" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("Conversation so far:\n")
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(chatReq.Messages[lastUser].Content)

	req := &datatypes.AggregationRequest{
		Prompt:         b.String(),
		SystemPrompt:   strings.Join(systemParts, "\n"),
		NumSamples:     chatReq.NumSelfConsistency,
		NumSteps:       chatReq.NumCot,
		Model:          chatReq.Model,
		Temperature:    chatReq.Temperature,
		TimeoutSeconds: chatReq.TimeoutSeconds,
	}
	req.EnsureDefaults()
	return req, nil
}
