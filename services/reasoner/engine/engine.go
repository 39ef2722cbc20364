// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine implements the reasoning aggregation pipeline:
// self-consistency fan-out, consistency voting, a reflection pass, and
// result composition with token and cost accounting.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
	"github.com/AleutianAI/AleutianReason/services/reasoner/pricing"
)

var tracer = otel.Tracer("aleutian.reasoner.engine")

// Defaults applied when Options leaves a knob at zero.
const (
	defaultMaxConcurrent  = 5
	defaultMinSamples     = 1
	defaultRequestTimeout = 120 * time.Second
)

// Options tunes pipeline behavior. The zero value gives usable defaults.
type Options struct {
	// MaxConcurrent caps simultaneously running reasoning paths.
	MaxConcurrent int

	// MinSamples is the minimum number of successful paths required for
	// the vote to proceed. Below it the run fails with AggregationError
	// (or TimeoutError when the deadline caused the shortfall).
	MinSamples int

	// DefaultTimeout applies when the request carries no timeout of its
	// own. Zero means defaultRequestTimeout.
	DefaultTimeout time.Duration
}

// Engine runs aggregation requests against one model backend. Safe for
// concurrent use; it holds no per-request state.
type Engine struct {
	client         llm.Client
	tiers          *llm.TierRegistry
	prices         *pricing.Table
	maxConcurrent  int
	minSamples     int
	defaultTimeout time.Duration
}

// NewEngine wires a pipeline over the given backend, tier registry and
// price table.
func NewEngine(client llm.Client, tiers *llm.TierRegistry, prices *pricing.Table, opts Options) *Engine {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.MinSamples <= 0 {
		opts.MinSamples = defaultMinSamples
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = defaultRequestTimeout
	}
	return &Engine{
		client:         client,
		tiers:          tiers,
		prices:         prices,
		maxConcurrent:  opts.MaxConcurrent,
		minSamples:     opts.MinSamples,
		defaultTimeout: opts.DefaultTimeout,
	}
}

// RunAggregation executes the full pipeline for one request.
//
// # Description
//
// Validates the request, fans out NumSamples independent chain-of-thought
// paths, votes across their final answers, runs one reflection pass over
// the survivors, and composes the terminal response with usage, cost and
// timing accounting. Individual path failures are isolated; the run only
// fails when fewer than the minimum sample count survives.
//
// # Inputs
//   - ctx: Cancellation and deadline propagation for every model call.
//   - req: The aggregation request. Mutated by EnsureDefaults.
//
// # Outputs
//   - *datatypes.AggregationResponse on success, possibly degraded.
//   - error: ValidationError, TimeoutError, AggregationError, or a
//     wrapped llm.ProviderError. See datatypes.HTTPStatusFor.
func (e *Engine) RunAggregation(ctx context.Context, req *datatypes.AggregationRequest) (*datatypes.AggregationResponse, error) {
	req.EnsureDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	numSamples, numSteps := *req.NumSamples, *req.NumSteps

	tier := llm.Tier(req.Model)
	modelName, err := e.tiers.Resolve(tier)
	if err != nil {
		return nil, datatypes.NewValidationError("model", err.Error())
	}

	timeout := e.defaultTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "reasoner.aggregate",
		oteltrace.WithAttributes(
			attribute.String("request.id", req.RequestID),
			attribute.String("model.tier", req.Model),
			attribute.String("model.name", modelName),
			attribute.Int("samples.requested", numSamples),
			attribute.Int("steps.requested", numSteps),
		))
	defer span.End()

	slog.Info("aggregation started",
		"request_id", req.RequestID,
		"model", modelName,
		"num_samples", numSamples,
		"num_steps", numSteps)

	start := time.Now()
	base := pathSpec{
		prompt:       req.Prompt,
		systemPrompt: req.SystemPrompt,
		documentText: req.DocumentText,
		numSteps:     numSteps,
		model:        modelName,
		temperature:  *req.Temperature,
	}

	results, pathErrs := e.fanOut(ctx, base, numSamples)
	samplesElapsed := time.Since(start)

	acct := settlePaths(req.RequestID, results, pathErrs)

	if len(acct.completed) < e.minSamples {
		span.SetAttributes(attribute.Int("samples.completed", len(acct.completed)))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &datatypes.TimeoutError{
				Elapsed:   time.Since(start),
				Completed: len(acct.completed),
				Err:       context.DeadlineExceeded,
			}
		}
		return nil, &datatypes.AggregationError{
			Requested: numSamples,
			Succeeded: len(acct.completed),
			Message:   "insufficient samples",
		}
	}

	votes := vote(acct.completed)

	reflStart := time.Now()
	refl := e.reflect(ctx, base, acct.completed, votes.Winner.Representative)
	acct.addReflection(refl.Usage)
	reflElapsed := time.Since(reflStart)

	cost := acct.settleCost(req.RequestID, e.prices, tier)

	timing := datatypes.TimingBreakdown{
		SamplesSeconds:    samplesElapsed.Seconds(),
		ReflectionSeconds: reflElapsed.Seconds(),
		TotalSeconds:      time.Since(start).Seconds(),
	}

	resp := compose(req, modelName, acct.completed, votes, refl, acct.usage, cost, timing)

	span.SetAttributes(
		attribute.Int("samples.completed", resp.SamplesCompleted),
		attribute.Float64("confidence.score", resp.ConfidenceScore),
		attribute.Bool("degraded", resp.Degraded),
	)
	slog.Info("aggregation finished",
		"request_id", req.RequestID,
		"samples_completed", resp.SamplesCompleted,
		"agreement", resp.AgreementConfidence,
		"confidence", resp.ConfidenceScore,
		"degraded", resp.Degraded,
		"total_tokens", resp.Usage.TotalTokens,
		"total_seconds", timing.TotalSeconds)

	return resp, nil
}
