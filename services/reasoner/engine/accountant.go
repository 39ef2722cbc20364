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
	"log/slog"

	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
	"github.com/AleutianAI/AleutianReason/services/reasoner/pricing"
)

// runAccounting accumulates token usage across every model call a
// request made, including calls on paths that later failed. Every
// token the backend charged for is billed, successful or not.
type runAccounting struct {
	usage     datatypes.TokenUsage
	completed []*datatypes.ReasoningPath
}

// settlePaths splits fan-out results into completed paths and billed
// failures. A failed path's partial usage is recovered from the
// ReasoningPathError it was wrapped in.
func settlePaths(requestID string, results []*datatypes.ReasoningPath, pathErrs []error) runAccounting {
	acct := runAccounting{
		completed: make([]*datatypes.ReasoningPath, 0, len(results)),
	}
	for i := range results {
		if results[i] != nil {
			acct.usage.Add(results[i].Usage)
			acct.completed = append(acct.completed, results[i])
			continue
		}
		var perr *datatypes.ReasoningPathError
		if errors.As(pathErrs[i], &perr) {
			acct.usage.Add(perr.Usage)
		}
		slog.Warn("reasoning path failed",
			"request_id", requestID, "sample", i+1, "error", pathErrs[i])
	}
	return acct
}

// addReflection folds the reflection call's usage into the total.
func (a *runAccounting) addReflection(u datatypes.TokenUsage) {
	a.usage.Add(u)
}

// settleCost prices the accumulated usage. A missing price entry must
// not discard a finished reasoning run, so lookup failures report zero
// cost with a warning.
func (a *runAccounting) settleCost(requestID string, prices *pricing.Table, tier llm.Tier) datatypes.CostBreakdown {
	cost, err := prices.CostFor(tier, a.usage)
	if err != nil {
		slog.Warn("cost lookup failed, reporting zero cost",
			"request_id", requestID, "tier", tier, "error", err)
		return datatypes.CostBreakdown{}
	}
	return cost
}
