// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

// Blending weights for the overall confidence score. Agreement carries
// the most signal: models self-report optimistically, so their own
// confidence and the reflection's get smaller shares.
const (
	weightAgreement  = 0.4
	weightLLM        = 0.3
	weightReflection = 0.3
)

// blendConfidence combines agreement (0-1), mean self-reported
// confidence (0-100) and reflection confidence (0-100) into a single
// score in [0,1]. When reflection was skipped, its weight is dropped and
// the remaining weights are renormalized so the score stays comparable
// across degraded and non-degraded runs.
func blendConfidence(agreement, llmConfidence, reflectionConfidence float64, reflectionSkipped bool) float64 {
	if reflectionSkipped {
		score := (weightAgreement*agreement + weightLLM*llmConfidence/100) /
			(weightAgreement + weightLLM)
		return clampUnit(score)
	}
	score := weightAgreement*agreement +
		weightLLM*llmConfidence/100 +
		weightReflection*reflectionConfidence/100
	return clampUnit(score)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// compose assembles the terminal response record from the pipeline
// artifacts. It is the only place the response is built; nothing mutates
// it afterwards.
func compose(
	req *datatypes.AggregationRequest,
	modelUsed string,
	paths []*datatypes.ReasoningPath,
	votes voteResult,
	refl reflectionOutcome,
	usage datatypes.TokenUsage,
	cost datatypes.CostBreakdown,
	timing datatypes.TimingBreakdown,
) *datatypes.AggregationResponse {
	resp := datatypes.NewAggregationResponse(req.RequestID)
	resp.Prompt = req.Prompt
	resp.ModelUsed = modelUsed

	resp.Samples = make([]datatypes.ReasoningPath, len(paths))
	for i, p := range paths {
		resp.Samples[i] = *p
	}
	resp.ChainOfThought = votes.WinnerPath.Steps

	resp.PreliminaryAnswer = votes.Winner.Representative
	if refl.Skipped {
		resp.FinalAnswer = resp.PreliminaryAnswer
		resp.ReflectionSkipped = true
	} else {
		resp.FinalAnswer = refl.RefinedAnswer
		resp.ReflectionReasoning = refl.Reasoning
		resp.ReflectionConfidence = refl.Confidence
	}

	resp.AgreementConfidence = votes.Agreement * 100
	resp.LLMConfidence = votes.Winner.MeanConfidence
	resp.ConfidenceScore = blendConfidence(
		votes.Agreement, votes.Winner.MeanConfidence, refl.Confidence, refl.Skipped)

	resp.SamplesRequested = *req.NumSamples
	resp.SamplesCompleted = len(paths)
	resp.Degraded = len(paths) < *req.NumSamples

	resp.Usage = usage
	resp.Cost = cost
	resp.Timing = timing

	resp.ReasoningSummary = buildSummary(resp, votes)
	return resp
}

// buildSummary renders the human-readable digest of the aggregation.
func buildSummary(resp *datatypes.AggregationResponse, votes voteResult) string {
	parts := []string{
		fmt.Sprintf("Generated %d independent reasoning paths.", resp.SamplesCompleted),
		fmt.Sprintf("LLM confidence: %.1f%% (Agreement: %.1f%%)",
			resp.LLMConfidence, resp.AgreementConfidence),
	}
	if len(votes.Groups) > 1 {
		parts = append(parts, fmt.Sprintf("Found %d distinct answer patterns.", len(votes.Groups)))
	} else {
		parts = append(parts, "All reasoning paths converged to the same answer.")
	}
	if resp.Degraded {
		parts = append(parts, "Result is degraded: some paths failed before completion.")
	}
	if resp.ReflectionSkipped {
		parts = append(parts, "Reflection was skipped; the majority answer stands.")
	}
	return strings.Join(parts, " ")
}
