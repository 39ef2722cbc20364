// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the reasoner service's HTTP endpoints.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianReason/pkg/extensions"
	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
	"github.com/AleutianAI/AleutianReason/services/reasoner/docs"
	"github.com/AleutianAI/AleutianReason/services/reasoner/middleware"
	"github.com/AleutianAI/AleutianReason/services/reasoner/observability"
)

// Aggregator runs one aggregation request end to end. Satisfied by
// *engine.Engine; tests substitute stubs.
type Aggregator interface {
	RunAggregation(ctx context.Context, req *datatypes.AggregationRequest) (*datatypes.AggregationResponse, error)
}

// Deps bundles what every handler needs. Metrics and Audit may be nil;
// recording is then skipped.
type Deps struct {
	Engine    Aggregator
	Extractor docs.Extractor
	Metrics   *observability.ReasonerMetrics
	Audit     extensions.AuditLogger
}

// HandleCompletions serves POST /v1/completions: the full reasoning
// aggregation pipeline over a single prompt.
func HandleCompletions(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req datatypes.AggregationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			recordFailure(deps, c, observability.EndpointCompletions, start,
				observability.ErrorCodeValidation, "", http.StatusBadRequest, "Invalid request body")
			return
		}
		req.EnsureDefaults()

		docInfo, err := resolveDocument(c.Request.Context(), deps, &req)
		if err != nil {
			status := datatypes.HTTPStatusFor(err)
			recordFailure(deps, c, observability.EndpointCompletions, start,
				errorCodeFor(err), req.RequestID, status, err.Error())
			return
		}

		if deps.Metrics != nil {
			deps.Metrics.RequestStarted()
			defer deps.Metrics.RequestEnded()
		}

		resp, err := deps.Engine.RunAggregation(c.Request.Context(), &req)
		if err != nil {
			status := datatypes.HTTPStatusFor(err)
			slog.Error("aggregation failed", "request_id", req.RequestID, "status", status, "error", err)
			recordFailure(deps, c, observability.EndpointCompletions, start,
				errorCodeFor(err), req.RequestID, status, err.Error())
			return
		}
		resp.Document = docInfo

		recordSuccess(deps, c, observability.EndpointCompletions, start, &req, resp)
		c.JSON(http.StatusOK, resp)
	}
}

// resolveDocument turns an inline base64 document into prompt context.
// Pre-extracted document_text passes through untouched apart from the
// budget trim.
func resolveDocument(ctx context.Context, deps Deps, req *datatypes.AggregationRequest) (*datatypes.DocumentInfo, error) {
	if req.DocumentB64 == "" {
		return nil, nil
	}
	if deps.Extractor == nil {
		return nil, datatypes.NewValidationError("document_b64",
			"no document extractor is configured; send document_text instead")
	}

	extracted, err := deps.Extractor.Extract(ctx, req.DocumentB64)
	if err != nil {
		return nil, &llm.ProviderError{Backend: "doc-extractor", Err: err}
	}

	text, warnings, err := docs.TrimToBudget(extracted.Text, datatypes.MaxDocumentTextBytes)
	if err != nil {
		return nil, err
	}
	req.DocumentText = text
	req.DocumentB64 = ""

	return &datatypes.DocumentInfo{
		PageCount: extracted.PageCount,
		Warnings:  append(extracted.Warnings, warnings...),
	}, nil
}

// errorCodeFor maps an engine error to its metrics label.
func errorCodeFor(err error) observability.ErrorCode {
	var (
		validationErr *datatypes.ValidationError
		timeoutErr    *datatypes.TimeoutError
		providerErr   *llm.ProviderError
		aggErr        *datatypes.AggregationError
	)
	switch {
	case errors.As(err, &validationErr):
		return observability.ErrorCodeValidation
	case errors.As(err, &timeoutErr):
		return observability.ErrorCodeTimeout
	case errors.As(err, &providerErr):
		return observability.ErrorCodeProvider
	case errors.As(err, &aggErr):
		return observability.ErrorCodeAggregation
	default:
		return observability.ErrorCodeInternal
	}
}

func recordFailure(deps Deps, c *gin.Context, endpoint observability.Endpoint, start time.Time,
	code observability.ErrorCode, requestID string, status int, message string) {

	if deps.Metrics != nil {
		deps.Metrics.RecordRequest(endpoint, false)
		deps.Metrics.RecordError(endpoint, code)
		deps.Metrics.RecordDuration(endpoint, time.Since(start).Seconds(), false)
	}
	auditRecord(deps, c, requestID, "error")
	c.JSON(status, gin.H{"error": message})
}

func recordSuccess(deps Deps, c *gin.Context, endpoint observability.Endpoint, start time.Time,
	req *datatypes.AggregationRequest, resp *datatypes.AggregationResponse) {

	if deps.Metrics != nil {
		deps.Metrics.RecordRequest(endpoint, true)
		deps.Metrics.RecordTokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.ModelUsed)
		deps.Metrics.RecordCost(req.Model, resp.Cost.TotalCost)
		deps.Metrics.RecordSamples(resp.SamplesCompleted, resp.SamplesRequested-resp.SamplesCompleted)
		deps.Metrics.RecordAgreement(resp.AgreementConfidence / 100)
		deps.Metrics.RecordDuration(endpoint, time.Since(start).Seconds(), true)
		if resp.ReflectionSkipped {
			deps.Metrics.RecordReflectionSkipped()
		}
	}
	auditRecord(deps, c, req.RequestID, "success")
}

func auditRecord(deps Deps, c *gin.Context, requestID, outcome string) {
	if deps.Audit == nil {
		return
	}
	userID := ""
	if info := middleware.GetAuthInfo(c); info != nil {
		userID = info.UserID
	}
	deps.Audit.Record(c.Request.Context(), extensions.AuditEvent{
		Timestamp: time.Now(),
		UserID:    userID,
		Action:    "aggregation.run",
		RequestID: requestID,
		Outcome:   outcome,
	})
}
