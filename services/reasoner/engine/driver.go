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

	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

// maxParseRetries is the number of extra attempts granted when a step or
// answer payload fails schema parsing. Retries carry a stricter
// formatting instruction; provider errors are never retried here.
const maxParseRetries = 2

// rawTruncateBytes bounds raw output attached to MalformedStepError.
const rawTruncateBytes = 512

// pathSpec carries everything one reasoning path needs. It is copied per
// sample so goroutines never share mutable state.
type pathSpec struct {
	sampleNumber int
	prompt       string
	systemPrompt string
	documentText string
	numSteps     int
	model        string
	temperature  float32
}

// runPath executes one complete chain-of-thought path: numSteps
// sequential reasoning calls, each seeing all prior steps, followed by
// one final-answer extraction call.
//
// On failure it returns a *datatypes.ReasoningPathError carrying the
// steps completed so far and the usage already spent, so callers can
// still account for partial work.
func (e *Engine) runPath(ctx context.Context, spec pathSpec) (*datatypes.ReasoningPath, error) {
	path := &datatypes.ReasoningPath{SampleNumber: spec.sampleNumber}

	fail := func(err error) error {
		return &datatypes.ReasoningPathError{
			SampleNumber: spec.sampleNumber,
			Steps:        path.Steps,
			Usage:        path.Usage,
			Err:          err,
		}
	}

	for step := 1; step <= spec.numSteps; step++ {
		payload, usage, err := e.generateStep(ctx, spec, path.Steps, step)
		path.Usage.Add(usage)
		if err != nil {
			return nil, fail(err)
		}
		path.Steps = append(path.Steps, datatypes.ReasoningStep{
			StepNumber:             step,
			Reasoning:              payload.Reasoning,
			IntermediateConclusion: payload.IntermediateConclusion,
		})
	}

	answer, usage, err := e.generateFinalAnswer(ctx, spec, path.Steps)
	path.Usage.Add(usage)
	if err != nil {
		return nil, fail(err)
	}

	path.FinalAnswer = answer.Answer
	path.LLMConfidence = answer.Confidence
	return path, nil
}

// generateStep makes the model call for one reasoning step, retrying
// parse failures up to maxParseRetries times with a stricter formatting
// instruction. The returned usage covers every attempt made.
func (e *Engine) generateStep(
	ctx context.Context,
	spec pathSpec,
	prior []datatypes.ReasoningStep,
	stepNumber int,
) (*stepPayload, datatypes.TokenUsage, error) {
	var usage datatypes.TokenUsage
	var lastErr error
	var lastRaw string

	for attempt := 0; attempt <= maxParseRetries; attempt++ {
		prompt := buildStepPrompt(spec, prior, stepNumber, attempt > 0)
		resp, err := e.client.Complete(ctx, llm.CompletionRequest{
			Model:       spec.model,
			System:      systemFor(spec),
			Prompt:      prompt,
			Temperature: spec.temperature,
		})
		if err != nil {
			return nil, usage, err
		}
		usage.Add(datatypes.TokenUsage{
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
		})

		payload, perr := parseStepPayload(resp.Text)
		if perr == nil {
			return payload, usage, nil
		}
		lastErr, lastRaw = perr, resp.Text
	}

	return nil, usage, &datatypes.MalformedStepError{
		StepNumber: stepNumber,
		Attempts:   maxParseRetries + 1,
		Raw:        truncateForLog(lastRaw, rawTruncateBytes),
		Err:        lastErr,
	}
}

// generateFinalAnswer extracts the explicit final answer for a completed
// path. Parse failures follow the same bounded retry policy as steps;
// the synthetic step number numSteps+1 identifies the extraction call.
func (e *Engine) generateFinalAnswer(
	ctx context.Context,
	spec pathSpec,
	steps []datatypes.ReasoningStep,
) (*answerPayload, datatypes.TokenUsage, error) {
	var usage datatypes.TokenUsage
	var lastErr error
	var lastRaw string

	for attempt := 0; attempt <= maxParseRetries; attempt++ {
		prompt := buildAnswerPrompt(spec, steps, attempt > 0)
		resp, err := e.client.Complete(ctx, llm.CompletionRequest{
			Model:       spec.model,
			System:      systemFor(spec),
			Prompt:      prompt,
			Temperature: spec.temperature,
		})
		if err != nil {
			return nil, usage, err
		}
		usage.Add(datatypes.TokenUsage{
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
		})

		payload, perr := parseAnswerPayload(resp.Text)
		if perr == nil {
			return payload, usage, nil
		}
		lastErr, lastRaw = perr, resp.Text
	}

	return nil, usage, &datatypes.MalformedStepError{
		StepNumber: spec.numSteps + 1,
		Attempts:   maxParseRetries + 1,
		Raw:        truncateForLog(lastRaw, rawTruncateBytes),
		Err:        lastErr,
	}
}
