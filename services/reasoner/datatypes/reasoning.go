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

// ReasoningStep is one step in a chain-of-thought path. Steps are
// immutable once produced; StepNumber is 1-based and strictly increasing
// within a path.
type ReasoningStep struct {
	StepNumber             int    `json:"step_number"`
	Reasoning              string `json:"reasoning"`
	IntermediateConclusion string `json:"intermediate_conclusion"`
}

// ReasoningPath is one complete independent chain-of-thought attempt
// (a "sample"). It is created by a single driver run, never mutated after
// completion, and owned exclusively by the fan-out result set until the
// voter consumes it.
type ReasoningPath struct {
	// SampleNumber is the 1-based index assigned at fan-out time.
	SampleNumber int `json:"sample_number"`

	// Steps is the ordered reasoning path. May be shorter than the
	// requested step count when the path failed partway.
	Steps []ReasoningStep `json:"reasoning_path"`

	// FinalAnswer is the explicit answer extracted on the final call.
	FinalAnswer string `json:"final_answer"`

	// LLMConfidence is the model's self-assessed confidence (0-100).
	LLMConfidence float64 `json:"llm_confidence"`

	// Usage is the token usage accumulated across this path's calls.
	Usage TokenUsage `json:"usage"`
}

// ConsistencyGroup is a set of samples whose final answers were judged
// semantically equivalent. Groups partition the successful samples.
type ConsistencyGroup struct {
	// NormalizedKey is the normalized form the members matched on.
	NormalizedKey string `json:"normalized_key"`

	// Representative is the full answer text of the earliest member.
	Representative string `json:"representative"`

	// Members holds the sample numbers in ascending order.
	Members []int `json:"members"`

	// MeanConfidence is the mean self-reported confidence of the members.
	MeanConfidence float64 `json:"mean_confidence"`
}

// Size returns the number of samples in the group.
func (g *ConsistencyGroup) Size() int { return len(g.Members) }
