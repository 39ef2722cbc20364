package pricing

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestDefaultTableCost(t *testing.T) {
	table := DefaultTable()

	usage := datatypes.TokenUsage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300}
	cost, err := table.CostFor(llm.TierFast, usage)
	if err != nil {
		t.Fatalf("CostFor returned error: %v", err)
	}

	// 100 * 0.15/1e6 + 200 * 0.60/1e6
	if !almostEqual(cost.InputCost, 0.000015) {
		t.Errorf("InputCost = %v, want 0.000015", cost.InputCost)
	}
	if !almostEqual(cost.OutputCost, 0.00012) {
		t.Errorf("OutputCost = %v, want 0.00012", cost.OutputCost)
	}
	if !almostEqual(cost.TotalCost, 0.000135) {
		t.Errorf("TotalCost = %v, want 0.000135", cost.TotalCost)
	}
	if cost.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", cost.Currency)
	}
}

func TestCostForZeroUsage(t *testing.T) {
	table := DefaultTable()
	cost, err := table.CostFor(llm.TierSlow, datatypes.TokenUsage{})
	if err != nil {
		t.Fatalf("CostFor returned error: %v", err)
	}
	if cost.TotalCost != 0 {
		t.Errorf("TotalCost = %v, want 0", cost.TotalCost)
	}
}

func TestCostForUnknownTier(t *testing.T) {
	table := &Table{prices: map[llm.Tier]TierPrice{}}
	_, err := table.CostFor(llm.TierFast, datatypes.TokenUsage{PromptTokens: 1})
	if err == nil {
		t.Fatal("expected error for unconfigured tier")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.json")
	body := `{
		"fast": {"input_price_per_mtok": 1.0, "output_price_per_mtok": 2.0, "currency": "EUR"},
		"slow": {"input_price_per_mtok": 10.0, "output_price_per_mtok": 20.0, "currency": "EUR"}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	price, err := table.Lookup(llm.TierFast)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if price.InputPerMTok != 1.0 || price.Currency != "EUR" {
		t.Errorf("unexpected fast price: %+v", price)
	}
}

func TestLoadFileRejectsBadConfigs(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"unknown tier", `{"turbo": {"input_price_per_mtok": 1, "output_price_per_mtok": 1, "currency": "USD"}}`},
		{"negative price", `{"fast": {"input_price_per_mtok": -1, "output_price_per_mtok": 1, "currency": "USD"}}`},
		{"missing currency", `{"fast": {"input_price_per_mtok": 1, "output_price_per_mtok": 1}}`},
		{"not json", `nope`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.json")
			if err := os.WriteFile(path, []byte(tc.body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFile(path); err == nil {
				t.Errorf("LoadFile accepted %s", tc.name)
			}
		})
	}
}

func TestReplaceSwapsPrices(t *testing.T) {
	table := DefaultTable()
	table.Replace(map[llm.Tier]TierPrice{
		llm.TierFast: {InputPerMTok: 5, OutputPerMTok: 5, Currency: "USD"},
	})
	price, err := table.Lookup(llm.TierFast)
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if price.InputPerMTok != 5 {
		t.Errorf("InputPerMTok = %v, want 5", price.InputPerMTok)
	}
	if _, err := table.Lookup(llm.TierSlow); err == nil {
		t.Error("slow tier should be gone after Replace")
	}
}
