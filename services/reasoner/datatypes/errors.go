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

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianReason/services/llm"
)

// =============================================================================
// Engine Error Taxonomy
// =============================================================================
//
// Every fatal error surfaced to the caller carries a kind and a
// human-readable message so the HTTP layer can distinguish bad input
// (400-class) from upstream trouble (500-class) from timeouts (504).
// llm.ProviderError lives in the llm package since it belongs to the
// backend boundary; everything else is defined here.

// ValidationError reports bad request parameters. Never retried; the
// offending field is included so clients can fix the request.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid request: field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// MalformedStepError reports that the model's output failed schema
// parsing even after the bounded in-step retries.
type MalformedStepError struct {
	StepNumber int
	Attempts   int
	Raw        string // truncated raw output, for diagnostics
	Err        error
}

func (e *MalformedStepError) Error() string {
	return fmt.Sprintf("step %d output failed schema parsing after %d attempts: %v",
		e.StepNumber, e.Attempts, e.Err)
}

func (e *MalformedStepError) Unwrap() error { return e.Err }

// ReasoningPathError reports that one sample failed. Failures are
// isolated: siblings keep running. Completed steps and usage are carried
// so the accountant can still bill the partial work.
type ReasoningPathError struct {
	SampleNumber int
	Steps        []ReasoningStep
	Usage        TokenUsage
	Err          error
}

func (e *ReasoningPathError) Error() string {
	return fmt.Sprintf("reasoning path %d failed after %d steps: %v",
		e.SampleNumber, len(e.Steps), e.Err)
}

func (e *ReasoningPathError) Unwrap() error { return e.Err }

// AggregationError reports that fewer samples succeeded than the
// configured minimum. Fatal.
type AggregationError struct {
	Requested int
	Succeeded int
	Message   string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation failed: %s (%d/%d samples succeeded)",
		e.Message, e.Succeeded, e.Requested)
}

// TimeoutError reports that the request deadline expired before enough
// samples completed.
type TimeoutError struct {
	Elapsed   time.Duration
	Completed int
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request deadline exceeded after %s with %d completed samples: %v",
		e.Elapsed.Round(time.Millisecond), e.Completed, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// =============================================================================
// HTTP Mapping
// =============================================================================

// HTTPStatusFor maps an engine error to the HTTP status the handlers
// should return. Unknown errors map to 500.
func HTTPStatusFor(err error) int {
	var (
		validationErr *ValidationError
		timeoutErr    *TimeoutError
		providerErr   *llm.ProviderError
		aggErr        *AggregationError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	case errors.As(err, &aggErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
