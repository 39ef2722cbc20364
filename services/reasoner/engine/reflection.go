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
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

const reflectionSchemaInstruction = `Respond with ONLY a JSON object of the form ` +
	`{"refined_answer": "<the best answer>", "reflection_reasoning": "<why>", "confidence": <number from 0 to 100>}. ` +
	`Do not include any other text.`

// reflectionOutcome is the result of the reflection pass. It never
// carries an error: a failed reflection is absorbed and reported via
// Skipped, keeping the preliminary answer authoritative.
type reflectionOutcome struct {
	RefinedAnswer string
	Reasoning     string
	Confidence    float64
	Usage         datatypes.TokenUsage
	Skipped       bool
}

// reflect makes a single critique call across all successful paths and
// the preliminary winner. Any failure, provider or parse, downgrades to
// a skipped reflection; the pipeline never fails here.
func (e *Engine) reflect(
	ctx context.Context,
	spec pathSpec,
	paths []*datatypes.ReasoningPath,
	preliminary string,
) reflectionOutcome {
	prompt := buildReflectionPrompt(spec, paths, preliminary)

	resp, err := e.client.Complete(ctx, llm.CompletionRequest{
		Model:       spec.model,
		System:      systemFor(spec),
		Prompt:      prompt,
		Temperature: spec.temperature,
	})
	if err != nil {
		slog.Warn("reflection call failed, keeping preliminary answer", "error", err)
		return reflectionOutcome{Skipped: true}
	}

	usage := datatypes.TokenUsage{
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
	}

	payload, perr := parseReflectionPayload(resp.Text)
	if perr != nil {
		slog.Warn("reflection output unparseable, keeping preliminary answer",
			"error", perr, "raw", truncateForLog(resp.Text, rawTruncateBytes))
		return reflectionOutcome{Usage: usage, Skipped: true}
	}

	return reflectionOutcome{
		RefinedAnswer: payload.RefinedAnswer,
		Reasoning:     payload.ReflectionReasoning,
		Confidence:    payload.Confidence,
		Usage:         usage,
	}
}

// buildReflectionPrompt lays out every path's answer and reasoning
// alongside the preliminary winner for a single critique pass.
func buildReflectionPrompt(spec pathSpec, paths []*datatypes.ReasoningPath, preliminary string) string {
	var b strings.Builder
	b.WriteString("You are analyzing multiple reasoning paths that independently attempted to answer the same question.\n\n")
	writeQuestionBlock(&b, spec)

	b.WriteString("\nReasoning paths:\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "\nPath %d (confidence %.0f):\n", p.SampleNumber, p.LLMConfidence)
		for _, s := range p.Steps {
			fmt.Fprintf(&b, "  Step %d: %s\n", s.StepNumber, s.IntermediateConclusion)
		}
		fmt.Fprintf(&b, "  Final answer: %s\n", p.FinalAnswer)
	}

	fmt.Fprintf(&b, "\nThe answer currently favored by majority vote is: %s\n", preliminary)
	b.WriteString("\nCritique the paths, resolve any disagreement, and state the best final answer.\n")
	b.WriteString(reflectionSchemaInstruction)
	return b.String()
}
