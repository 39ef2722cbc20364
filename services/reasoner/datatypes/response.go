// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// =============================================================================
// Usage, Cost and Timing
// =============================================================================

// TokenUsage contains token consumption statistics for billing and
// monitoring. TotalTokens is always PromptTokens + CompletionTokens.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record into this one.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens = u.PromptTokens + u.CompletionTokens
}

// CostBreakdown is the monetary cost of a request derived from the
// per-tier price table. All amounts are in Currency units.
type CostBreakdown struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
	Currency   string  `json:"currency"`
}

// TimingBreakdown records wall-clock durations per pipeline phase,
// in seconds.
type TimingBreakdown struct {
	SamplesSeconds    float64 `json:"samples_seconds"`
	ReflectionSeconds float64 `json:"reflection_seconds"`
	TotalSeconds      float64 `json:"total_seconds"`
}

// DocumentInfo reports extraction metadata when a document was supplied.
type DocumentInfo struct {
	PageCount int      `json:"page_count"`
	Warnings  []string `json:"warnings,omitempty"`
}

// =============================================================================
// Aggregation Response
// =============================================================================

// AggregationResponse is the terminal record of one aggregation request.
//
// # Description
//
// Assembled once by the result composer and never mutated afterwards. The
// service does not persist it; persistence, if any, belongs to callers.
//
// # Fields
//
//   - ResponseID / RequestID / Timestamp: correlation identifiers for audit
//     trails. ResponseID is generated server-side.
//   - Prompt: Echo of the prompt that was reasoned about.
//   - ModelUsed: The concrete model name the tier resolved to.
//   - ChainOfThought: The representative path's steps (the earliest member
//     of the winning consistency group).
//   - Samples: Every successful reasoning path, in sample order.
//   - PreliminaryAnswer: The pre-reflection winner chosen by the voter.
//   - FinalAnswer: The refined answer after reflection (equal to
//     PreliminaryAnswer when reflection was skipped).
//   - ReflectionReasoning / ReflectionConfidence: Output of the reflection
//     pass; zero values when ReflectionSkipped is true.
//   - ConfidenceScore: Blended overall confidence in [0,1].
//   - LLMConfidence: Mean self-reported confidence of the winning group,
//     0-100 scale.
//   - AgreementConfidence: Winning-group share of successful samples,
//     0-100 scale.
//   - ReasoningSummary: Human-readable digest of the aggregation.
//   - Degraded: True when fewer samples completed than were requested.
//   - ReflectionSkipped: True when the reflection call failed and the
//     stage was absorbed.
//   - SamplesRequested / SamplesCompleted: The K requested vs. obtained.
//   - Usage / Cost / Timing: Accounting across every model call made.
//   - Document: Present only when a document was supplied.
type AggregationResponse struct {
	ResponseID           string          `json:"response_id"`
	RequestID            string          `json:"request_id"`
	Timestamp            int64           `json:"timestamp"`
	Prompt               string          `json:"prompt"`
	ModelUsed            string          `json:"model_used"`
	ChainOfThought       []ReasoningStep `json:"chain_of_thought"`
	Samples              []ReasoningPath `json:"self_consistency_samples"`
	PreliminaryAnswer    string          `json:"preliminary_answer"`
	FinalAnswer          string          `json:"final_answer"`
	ReflectionReasoning  string          `json:"reflection_reasoning,omitempty"`
	ReflectionConfidence float64         `json:"reflection_confidence"`
	ConfidenceScore      float64         `json:"confidence_score"`
	LLMConfidence        float64         `json:"llm_confidence"`
	AgreementConfidence  float64         `json:"agreement_confidence"`
	ReasoningSummary     string          `json:"reasoning_summary"`
	Degraded             bool            `json:"degraded"`
	ReflectionSkipped    bool            `json:"reflection_skipped"`
	SamplesRequested     int             `json:"samples_requested"`
	SamplesCompleted     int             `json:"samples_completed"`
	Usage                TokenUsage      `json:"usage"`
	Cost                 CostBreakdown   `json:"cost"`
	Timing               TimingBreakdown `json:"timing"`
	Document             *DocumentInfo   `json:"document,omitempty"`
}

// NewAggregationResponse stamps correlation fields onto a response.
func NewAggregationResponse(requestID string) *AggregationResponse {
	return &AggregationResponse{
		ResponseID: generateUUID(),
		RequestID:  requestID,
		Timestamp:  time.Now().UnixMilli(),
	}
}
