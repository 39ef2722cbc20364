// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// =============================================================================
// Model Tiers
// =============================================================================

// Tier is a named quality/cost class of the underlying model backend.
// Callers pick a tier instead of a concrete model name so the deployment
// can remap tiers without touching clients.
type Tier string

const (
	// TierFast is the cheap, low-latency tier (default).
	TierFast Tier = "fast"

	// TierSlow is the expensive, higher-quality tier.
	TierSlow Tier = "slow"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFast || t == TierSlow
}

// TierRegistry maps tiers to concrete model names.
//
// # Description
//
// The mapping is fixed at construction time and safe for concurrent reads.
// Model names come from FAST_MODEL / SLOW_MODEL env vars with sensible
// OpenAI defaults, matching the hosted deployment.
//
// # Thread Safety
//
// TierRegistry is immutable after construction and safe for concurrent use.
type TierRegistry struct {
	models map[Tier]string
}

// NewTierRegistryFromEnv builds a registry from FAST_MODEL and SLOW_MODEL.
func NewTierRegistryFromEnv() *TierRegistry {
	fast := os.Getenv("FAST_MODEL")
	if fast == "" {
		fast = "gpt-4o-mini"
		slog.Warn("FAST_MODEL not set, defaulting to gpt-4o-mini")
	}
	slow := os.Getenv("SLOW_MODEL")
	if slow == "" {
		slow = "gpt-4"
		slog.Warn("SLOW_MODEL not set, defaulting to gpt-4")
	}
	return NewTierRegistry(fast, slow)
}

// NewTierRegistry builds a registry with explicit model names.
func NewTierRegistry(fastModel, slowModel string) *TierRegistry {
	return &TierRegistry{
		models: map[Tier]string{
			TierFast: fastModel,
			TierSlow: slowModel,
		},
	}
}

// Resolve returns the concrete model name for a tier.
func (r *TierRegistry) Resolve(t Tier) (string, error) {
	model, ok := r.models[t]
	if !ok {
		return "", fmt.Errorf("unknown model tier %q", t)
	}
	return model, nil
}

// Models returns the tier -> model mapping for logging and health output.
func (r *TierRegistry) Models() map[Tier]string {
	out := make(map[Tier]string, len(r.models))
	for k, v := range r.models {
		out[k] = v
	}
	return out
}

// =============================================================================
// Ollama Warm-Up
// =============================================================================

// ollamaWarmRequest asks Ollama to load a model and keep it resident so
// the first fan-out burst does not pay model-load latency per sample.
type ollamaWarmRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	KeepAlive string    `json:"keep_alive"`
	Stream    bool      `json:"stream"`
}

// WarmTiers preloads every tier's model into Ollama VRAM with an infinite
// keep_alive. Only meaningful for the ollama backend; callers using hosted
// APIs should skip it. Failures are logged and skipped; warm-up is an
// optimization, not a correctness requirement.
func (r *TierRegistry) WarmTiers(ctx context.Context, baseURL string) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	client := &http.Client{Timeout: 2 * time.Minute}

	for tier, model := range r.models {
		payload := ollamaWarmRequest{
			Model:     model,
			Messages:  []Message{},
			KeepAlive: "-1",
			Stream:    false,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			slog.Warn("Failed to marshal warm-up request", "tier", tier, "model", model, "error", err)
			continue
		}

		req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/api/chat", bytes.NewBuffer(body))
		if err != nil {
			slog.Warn("Failed to create warm-up request", "tier", tier, "model", model, "error", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			slog.Warn("Model warm-up failed", "tier", tier, "model", model, "error", err)
			continue
		}
		_ = resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			slog.Warn("Model warm-up returned non-OK status", "tier", tier, "model", model,
				"status_code", resp.StatusCode)
			continue
		}
		slog.Info("Model warmed", "tier", tier, "model", model,
			"duration_ms", time.Since(start).Milliseconds())
	}
}
