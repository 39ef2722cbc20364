package pricing

import (
	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
)

const tokensPerMillion = 1_000_000.0

// CostFor converts a token usage total into a monetary breakdown for the
// given tier.
//
// # Inputs
//   - tier: The model tier the tokens were spent against.
//   - usage: Aggregated token counts for the whole request.
//
// # Outputs
//   - datatypes.CostBreakdown with input, output, and total cost.
//   - error: Only when no price is configured for the tier.
func (t *Table) CostFor(tier llm.Tier, usage datatypes.TokenUsage) (datatypes.CostBreakdown, error) {
	price, err := t.Lookup(tier)
	if err != nil {
		return datatypes.CostBreakdown{}, err
	}

	inputCost := float64(usage.PromptTokens) / tokensPerMillion * price.InputPerMTok
	outputCost := float64(usage.CompletionTokens) / tokensPerMillion * price.OutputPerMTok

	return datatypes.CostBreakdown{
		InputCost:  inputCost,
		OutputCost: outputCost,
		TotalCost:  inputCost + outputCost,
		Currency:   price.Currency,
	}, nil
}
