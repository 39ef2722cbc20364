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
	"errors"
	"fmt"
	"testing"
)

func TestTier_Valid(t *testing.T) {
	cases := []struct {
		tier Tier
		want bool
	}{
		{TierFast, true},
		{TierSlow, true},
		{Tier("medium"), false},
		{Tier(""), false},
	}

	for _, tc := range cases {
		if got := tc.tier.Valid(); got != tc.want {
			t.Errorf("Tier(%q).Valid() = %v, want %v", tc.tier, got, tc.want)
		}
	}
}

func TestTierRegistry_Resolve(t *testing.T) {
	reg := NewTierRegistry("gpt-4o-mini", "gpt-4")

	model, err := reg.Resolve(TierFast)
	if err != nil {
		t.Fatalf("Resolve(fast) returned error: %v", err)
	}
	if model != "gpt-4o-mini" {
		t.Errorf("Resolve(fast) = %q, want gpt-4o-mini", model)
	}

	model, err = reg.Resolve(TierSlow)
	if err != nil {
		t.Fatalf("Resolve(slow) returned error: %v", err)
	}
	if model != "gpt-4" {
		t.Errorf("Resolve(slow) = %q, want gpt-4", model)
	}
}

func TestTierRegistry_Resolve_UnknownTier(t *testing.T) {
	reg := NewTierRegistry("gpt-4o-mini", "gpt-4")

	if _, err := reg.Resolve(Tier("turbo")); err == nil {
		t.Error("expected error for unknown tier, got nil")
	}
}

func TestTierRegistry_Models_ReturnsCopy(t *testing.T) {
	reg := NewTierRegistry("gpt-4o-mini", "gpt-4")

	models := reg.Models()
	models[TierFast] = "tampered"

	model, err := reg.Resolve(TierFast)
	if err != nil {
		t.Fatalf("Resolve(fast) returned error: %v", err)
	}
	if model != "gpt-4o-mini" {
		t.Error("mutating the Models() copy must not affect the registry")
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := &ProviderError{Backend: "ollama", StatusCode: 503, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var pe *ProviderError
	if !errors.As(error(err), &pe) {
		t.Error("errors.As should match *ProviderError")
	}
}
