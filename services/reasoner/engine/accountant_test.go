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
	"errors"
	"testing"

	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
	"github.com/AleutianAI/AleutianReason/services/reasoner/pricing"
)

func TestSettlePathsBillsFailedPathUsage(t *testing.T) {
	ok := &datatypes.ReasoningPath{
		SampleNumber: 1,
		Usage:        datatypes.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}
	failed := &datatypes.ReasoningPathError{
		SampleNumber: 2,
		Usage:        datatypes.TokenUsage{PromptTokens: 40, CompletionTokens: 10, TotalTokens: 50},
		Err:          errors.New("backend exploded"),
	}

	acct := settlePaths("req-1",
		[]*datatypes.ReasoningPath{ok, nil},
		[]error{nil, failed})

	if len(acct.completed) != 1 {
		t.Fatalf("completed = %d, want 1", len(acct.completed))
	}
	if acct.usage.PromptTokens != 140 || acct.usage.CompletionTokens != 60 {
		t.Errorf("usage = %+v, want partial failure billed", acct.usage)
	}
	if acct.usage.TotalTokens != 200 {
		t.Errorf("TotalTokens = %d, want 200", acct.usage.TotalTokens)
	}
}

func TestSettlePathsIgnoresUntypedErrors(t *testing.T) {
	acct := settlePaths("req-1",
		[]*datatypes.ReasoningPath{nil},
		[]error{errors.New("plain error")})

	if len(acct.completed) != 0 {
		t.Fatalf("completed = %d, want 0", len(acct.completed))
	}
	if acct.usage.TotalTokens != 0 {
		t.Errorf("TotalTokens = %d, want 0 for untyped error", acct.usage.TotalTokens)
	}
}

func TestSettleCostAbsorbsUnknownTier(t *testing.T) {
	acct := runAccounting{
		usage: datatypes.TokenUsage{PromptTokens: 100, CompletionTokens: 100, TotalTokens: 200},
	}
	cost := acct.settleCost("req-1", pricing.DefaultTable(), "no-such-tier")

	if cost.TotalCost != 0 {
		t.Errorf("TotalCost = %v, want zero cost on lookup failure", cost.TotalCost)
	}
}
