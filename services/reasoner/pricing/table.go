// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pricing maps model tiers to per-token prices.
//
// The table is injected into the engine at construction time so tests can
// substitute deterministic prices; it is never read through a process-wide
// global. A deployment overrides the compiled-in defaults with a JSON file
// (PRICING_CONFIG_PATH) which can be hot-reloaded via Watch.
package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/AleutianAI/AleutianReason/services/llm"
)

// TierPrice holds per-token prices for one model tier. Prices are
// expressed per million tokens, the way providers publish them.
type TierPrice struct {
	InputPerMTok  float64 `json:"input_price_per_mtok"`
	OutputPerMTok float64 `json:"output_price_per_mtok"`
	Currency      string  `json:"currency"`
}

// Table is a thread-safe tier -> price mapping.
//
// Reads vastly outnumber writes (writes only happen on config reload),
// so a RWMutex is sufficient.
type Table struct {
	mu     sync.RWMutex
	prices map[llm.Tier]TierPrice
}

// DefaultTable returns the compiled-in price table matching the default
// tier models (gpt-4o-mini / gpt-4, USD prices as of late 2025).
func DefaultTable() *Table {
	return &Table{
		prices: map[llm.Tier]TierPrice{
			llm.TierFast: {InputPerMTok: 0.15, OutputPerMTok: 0.60, Currency: "USD"},
			llm.TierSlow: {InputPerMTok: 30.0, OutputPerMTok: 60.0, Currency: "USD"},
		},
	}
}

// LoadFile reads a JSON price table, e.g.:
//
//	{
//	  "fast": {"input_price_per_mtok": 0.15, "output_price_per_mtok": 0.60, "currency": "USD"},
//	  "slow": {"input_price_per_mtok": 30.0, "output_price_per_mtok": 60.0, "currency": "USD"}
//	}
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing config %s: %w", path, err)
	}

	var raw map[llm.Tier]TierPrice
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse pricing config %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("pricing config %s contains no tiers", path)
	}

	for tier, price := range raw {
		if !tier.Valid() {
			return nil, fmt.Errorf("pricing config %s: unknown tier %q", path, tier)
		}
		if price.InputPerMTok < 0 || price.OutputPerMTok < 0 {
			return nil, fmt.Errorf("pricing config %s: negative price for tier %q", path, tier)
		}
		if price.Currency == "" {
			return nil, fmt.Errorf("pricing config %s: missing currency for tier %q", path, tier)
		}
	}

	return &Table{prices: raw}, nil
}

// Lookup returns the price entry for a tier.
func (t *Table) Lookup(tier llm.Tier) (TierPrice, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	price, ok := t.prices[tier]
	if !ok {
		return TierPrice{}, fmt.Errorf("no price configured for tier %q", tier)
	}
	return price, nil
}

// Replace swaps the whole mapping. Used by the config watcher.
func (t *Table) Replace(prices map[llm.Tier]TierPrice) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prices = prices
}

// snapshot returns a copy of the current mapping, for Replace on reload.
func (t *Table) snapshot() map[llm.Tier]TierPrice {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[llm.Tier]TierPrice, len(t.prices))
	for k, v := range t.prices {
		out[k] = v
	}
	return out
}
