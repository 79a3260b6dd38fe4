package engine

import "fmt"

// ComputeCost prices a completed call from its actual token usage. An
// unresolvable model is an error, never a zero cost.
func ComputeCost(prices PriceLookup, modelID string, tokensIn, tokensOut int) (float64, error) {
	p, err := prices.Lookup(modelID)
	if err != nil {
		return 0, fmt.Errorf("pricing %s: %w", modelID, err)
	}
	return p.InputCost(tokensIn) + p.OutputCost(tokensOut), nil
}
