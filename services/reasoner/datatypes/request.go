// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the reasoner service.
//
// This file contains the request type for the aggregation endpoints.
// Reasoning path and response types live in reasoning.go and response.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Bounds
// =============================================================================

const (
	// MaxPromptBytes is the maximum size of the prompt field.
	// Checked in bytes, not runes, to bound memory per request.
	MaxPromptBytes = 32 * 1024 // 32KB

	// MaxDocumentTextBytes is the maximum size of pre-extracted document text.
	MaxDocumentTextBytes = 256 * 1024 // 256KB

	// MaxSamples bounds the number of independent reasoning paths per request.
	MaxSamples = 15

	// MaxSteps bounds the number of chain-of-thought steps per path.
	MaxSteps = 10

	// DefaultSamples is used when the client omits num_self_consistency.
	DefaultSamples = 3

	// DefaultSteps is used when the client omits num_cot.
	DefaultSteps = 3

	// DefaultTemperature is used when the client omits temperature.
	DefaultTemperature float32 = 0.7
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// reasonerValidate is the validator instance for reasoner datatypes.
// Initialized in init() with custom validators.
var reasonerValidate *validator.Validate

func init() {
	reasonerValidate = validator.New()

	_ = reasonerValidate.RegisterValidation("promptbytes", validatePromptBytes)
	_ = reasonerValidate.RegisterValidation("docbytes", validateDocBytes)
}

// validatePromptBytes enforces MaxPromptBytes on string fields.
func validatePromptBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPromptBytes
}

// validateDocBytes enforces MaxDocumentTextBytes on string fields.
func validateDocBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxDocumentTextBytes
}

// =============================================================================
// Aggregation Request
// =============================================================================

// AggregationRequest represents a reasoning aggregation request body.
//
// # Description
//
// AggregationRequest carries the prompt and the knobs controlling the
// self-consistency pipeline: how many independent reasoning paths to
// generate (num_self_consistency), how many chain-of-thought steps each
// path takes (num_cot), which model tier to use, and the sampling
// temperature. This is the body of POST /v1/completions.
//
// # Fields
//
//   - RequestID: Unique identifier for this request (UUID v4).
//     Generated server-side by EnsureDefaults when the client omits it.
//   - Timestamp: Unix timestamp in milliseconds (UTC) when request was created.
//   - Prompt: Required. The question to reason about. Max 32KB.
//   - SystemPrompt: Optional. Instruction text threaded into every model call.
//   - DocumentText: Optional. Pre-extracted document text prepended to the
//     prompt as context. Max 256KB.
//   - DocumentB64: Optional. Base64-encoded document bytes; the handler sends
//     these to the extractor service and prepends the extracted text.
//   - NumSamples: Number of independent reasoning paths, 1-15. Default 3.
//     Pointer so an explicit 0 is rejected instead of silently defaulted.
//   - NumSteps: Chain-of-thought steps per path, 1-10. Default 3. Pointer
//     for the same reason.
//   - Model: Model tier, "fast" or "slow". Default "fast".
//   - Temperature: Sampling temperature, 0.0-2.0. Default 0.7. Pointer so a
//     deliberate 0.0 is distinguishable from an omitted field.
//   - TimeoutSeconds: Optional overall deadline for the request, 0-600.
//     Zero means the server default applies.
//
// # Validation
//
// Uses go-playground/validator:
//   - RequestID: required after EnsureDefaults, must be valid UUID v4
//   - Prompt: required, max 32768 bytes
//   - NumSamples: 1-15 after EnsureDefaults
//   - NumSteps: 1-10 after EnsureDefaults
//   - Model: "fast" or "slow"
//   - Temperature: 0.0-2.0 when set
//
// Out-of-bounds values are rejected before any model call is made.
//
// # Examples
//
//	samples, steps := 5, 3
//	req := AggregationRequest{
//	    Prompt:     "What is the capital of France?",
//	    NumSamples: &samples,
//	    NumSteps:   &steps,
//	    Model:      "fast",
//	}
//	req.EnsureDefaults()
//	if err := req.Validate(); err != nil { ... }
type AggregationRequest struct {
	RequestID      string   `json:"request_id" validate:"required,uuid4"`
	Timestamp      int64    `json:"timestamp" validate:"required,gt=0"`
	Prompt         string   `json:"prompt" validate:"required,promptbytes"`
	SystemPrompt   string   `json:"system_prompt,omitempty" validate:"promptbytes"`
	DocumentText   string   `json:"document_text,omitempty" validate:"docbytes"`
	DocumentB64    string   `json:"document_b64,omitempty"`
	NumSamples     *int     `json:"num_self_consistency,omitempty" validate:"required,gte=1,lte=15"`
	NumSteps       *int     `json:"num_cot,omitempty" validate:"required,gte=1,lte=10"`
	Model          string   `json:"model" validate:"required,oneof=fast slow"`
	Temperature    *float32 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" validate:"gte=0,lte=600"`
}

// Validate validates the AggregationRequest fields.
//
// Call EnsureDefaults first; Validate treats missing defaults as errors
// so that no model call can ever be issued for an unchecked request.
func (r *AggregationRequest) Validate() error {
	if err := reasonerValidate.Struct(r); err != nil {
		return NewValidationError(firstInvalidField(err), err.Error())
	}
	return nil
}

// EnsureDefaults populates default values for optional fields.
//
// Generates RequestID and Timestamp if not provided, and fills the
// pipeline knobs with the documented defaults when the client sent zero
// values.
func (r *AggregationRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = generateUUID()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
	// Only a nil knob is an omission. An explicit zero is preserved so
	// Validate can reject it before any model call.
	if r.NumSamples == nil {
		samples := DefaultSamples
		r.NumSamples = &samples
	}
	if r.NumSteps == nil {
		steps := DefaultSteps
		r.NumSteps = &steps
	}
	if r.Model == "" {
		r.Model = "fast"
	}
	if r.Temperature == nil {
		temp := DefaultTemperature
		r.Temperature = &temp
	}
}

// firstInvalidField pulls the first offending field name out of a
// validator error so ValidationError can point the caller at it.
func firstInvalidField(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}
