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
	"strings"
	"testing"
	"time"
)

// =============================================================================
// AggregationRequest Validation Tests
// =============================================================================

func intPtr(v int) *int { return &v }

func validRequest() *AggregationRequest {
	temp := float32(0.7)
	return &AggregationRequest{
		RequestID:   "550e8400-e29b-41d4-a716-446655440000",
		Timestamp:   time.Now().UnixMilli(),
		Prompt:      "What is the capital of France?",
		NumSamples:  intPtr(5),
		NumSteps:    intPtr(3),
		Model:       "fast",
		Temperature: &temp,
	}
}

func TestAggregationRequest_Validate_Success(t *testing.T) {
	req := validRequest()
	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got error: %v", err)
	}
}

func TestAggregationRequest_Validate_MissingPrompt(t *testing.T) {
	req := validRequest()
	req.Prompt = ""

	err := req.Validate()
	if err == nil {
		t.Fatal("expected error for missing prompt, got nil")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "Prompt" {
		t.Errorf("expected offending field Prompt, got %q", verr.Field)
	}
}

func TestAggregationRequest_Validate_SampleBounds(t *testing.T) {
	cases := []struct {
		name    string
		samples int
		wantErr bool
	}{
		{"minimum", 1, false},
		{"maximum", MaxSamples, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"too many", MaxSamples + 1, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			req.NumSamples = intPtr(tc.samples)
			err := req.Validate()
			if tc.wantErr && err == nil {
				t.Errorf("num_self_consistency=%d: expected error, got nil", tc.samples)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("num_self_consistency=%d: unexpected error: %v", tc.samples, err)
			}
		})
	}
}

func TestAggregationRequest_Validate_StepBounds(t *testing.T) {
	cases := []struct {
		name    string
		steps   int
		wantErr bool
	}{
		{"minimum", 1, false},
		{"maximum", MaxSteps, false},
		{"zero", 0, true},
		{"too many", MaxSteps + 1, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			req.NumSteps = intPtr(tc.steps)
			err := req.Validate()
			if tc.wantErr && err == nil {
				t.Errorf("num_cot=%d: expected error, got nil", tc.steps)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("num_cot=%d: unexpected error: %v", tc.steps, err)
			}
		})
	}
}

func TestAggregationRequest_Validate_TemperatureBounds(t *testing.T) {
	cases := []struct {
		name    string
		temp    float32
		wantErr bool
	}{
		{"zero is allowed", 0.0, false},
		{"upper bound", 2.0, false},
		{"negative", -0.1, true},
		{"too hot", 2.1, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			req.Temperature = &tc.temp
			err := req.Validate()
			if tc.wantErr && err == nil {
				t.Errorf("temperature=%v: expected error, got nil", tc.temp)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("temperature=%v: unexpected error: %v", tc.temp, err)
			}
		})
	}
}

func TestAggregationRequest_Validate_InvalidModelTier(t *testing.T) {
	req := validRequest()
	req.Model = "medium"

	if err := req.Validate(); err == nil {
		t.Error("expected error for unknown model tier, got nil")
	}
}

func TestAggregationRequest_Validate_PromptTooLarge(t *testing.T) {
	req := validRequest()
	req.Prompt = strings.Repeat("a", MaxPromptBytes+1)

	if err := req.Validate(); err == nil {
		t.Errorf("expected error for prompt over %d bytes, got nil", MaxPromptBytes)
	}
}

func TestAggregationRequest_Validate_PromptExactlyMaxBytes(t *testing.T) {
	req := validRequest()
	req.Prompt = strings.Repeat("a", MaxPromptBytes)

	if err := req.Validate(); err != nil {
		t.Errorf("expected prompt of exactly %d bytes to validate, got: %v", MaxPromptBytes, err)
	}
}

// =============================================================================
// EnsureDefaults Tests
// =============================================================================

func TestAggregationRequest_EnsureDefaults(t *testing.T) {
	req := &AggregationRequest{Prompt: "hello"}
	req.EnsureDefaults()

	if req.RequestID == "" {
		t.Error("expected RequestID to be generated")
	}
	if req.Timestamp == 0 {
		t.Error("expected Timestamp to be set")
	}
	if req.NumSamples == nil || *req.NumSamples != DefaultSamples {
		t.Errorf("expected NumSamples=%d, got %v", DefaultSamples, req.NumSamples)
	}
	if req.NumSteps == nil || *req.NumSteps != DefaultSteps {
		t.Errorf("expected NumSteps=%d, got %v", DefaultSteps, req.NumSteps)
	}
	if req.Model != "fast" {
		t.Errorf("expected default model tier fast, got %q", req.Model)
	}
	if req.Temperature == nil || *req.Temperature != DefaultTemperature {
		t.Errorf("expected default temperature %v, got %v", DefaultTemperature, req.Temperature)
	}

	if err := req.Validate(); err != nil {
		t.Errorf("request with defaults should validate, got: %v", err)
	}
}

func TestAggregationRequest_EnsureDefaults_PreservesExplicitValues(t *testing.T) {
	temp := float32(0.0)
	req := &AggregationRequest{
		Prompt:      "hello",
		NumSamples:  intPtr(7),
		NumSteps:    intPtr(2),
		Model:       "slow",
		Temperature: &temp,
	}
	req.EnsureDefaults()

	if *req.NumSamples != 7 || *req.NumSteps != 2 || req.Model != "slow" {
		t.Error("EnsureDefaults must not overwrite explicit values")
	}
	if *req.Temperature != 0.0 {
		t.Error("an explicit temperature of 0.0 must be preserved")
	}
}

func TestAggregationRequest_EnsureDefaults_KeepsExplicitZeroForValidation(t *testing.T) {
	req := &AggregationRequest{
		Prompt:     "hello",
		NumSamples: intPtr(0),
		NumSteps:   intPtr(0),
	}
	req.EnsureDefaults()

	if *req.NumSamples != 0 || *req.NumSteps != 0 {
		t.Fatal("an explicit zero must survive EnsureDefaults")
	}
	if err := req.Validate(); err == nil {
		t.Error("expected explicit zero knobs to fail validation")
	}
}
