package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rshade/promptbatch/internal/logging"
)

// TokenCounter counts the tokens of text for a model id.
type TokenCounter interface {
	Count(ctx context.Context, modelID, text string) (int, error)
}

// RowEstimate is the projected input cost of one row.
type RowEstimate struct {
	ID       string  `json:"id"`
	Model    string  `json:"model"`
	TokensIn int     `json:"tokens_in"`
	EstCost  float64 `json:"est_cost"`
}

// Estimate is the projected input cost of a set of rows.
type Estimate struct {
	TotalUSD float64       `json:"total_usd"`
	PerRow   []RowEstimate `json:"per_row"`
}

// Estimator projects input-only cost before a batch runs. Output tokens are
// unknown before the call and are not included.
type Estimator struct {
	counter      TokenCounter
	prices       PriceLookup
	defaultModel string
}

// NewEstimator returns an Estimator. An empty defaultModel means DefaultModel.
func NewEstimator(counter TokenCounter, prices PriceLookup, defaultModel string) *Estimator {
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = DefaultModel
	}
	return &Estimator{counter: counter, prices: prices, defaultModel: defaultModel}
}

// Estimate projects the cost of rows. A model that cannot be priced fails
// the whole estimate rather than being counted as free.
func (e *Estimator) Estimate(ctx context.Context, rows []Row) (*Estimate, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	if e.counter == nil || e.prices == nil {
		return nil, errors.New("estimator requires a token counter and a price lookup")
	}

	out := &Estimate{PerRow: make([]RowEstimate, 0, len(rows))}
	for _, row := range rows {
		modelID, _ := resolveModel(row.Model, e.defaultModel)

		p, err := e.prices.Lookup(modelID)
		if err != nil {
			return nil, fmt.Errorf("estimating row %q: %w", row.ID, err)
		}

		tokensIn, err := e.counter.Count(ctx, modelID, EstimationText(row))
		if err != nil {
			return nil, fmt.Errorf("counting tokens for row %q: %w", row.ID, err)
		}

		cost := p.InputCost(tokensIn)
		out.TotalUSD += cost
		out.PerRow = append(out.PerRow, RowEstimate{
			ID:       row.ID,
			Model:    modelID,
			TokensIn: tokensIn,
			EstCost:  cost,
		})
	}

	log.Info().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "estimate").
		Int("rows", len(rows)).
		Float64("total_usd", out.TotalUSD).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("cost estimate complete")

	return out, nil
}

// EstimationText joins the system prompt, developer prompt, user prompt and
// every data value (in key order) into the text that is counted.
func EstimationText(row Row) string {
	parts := make([]string, 0, 3+len(row.Data))
	for _, s := range []string{row.System, row.Developer, row.Prompt} {
		if s != "" {
			parts = append(parts, s)
		}
	}

	keys := make([]string, 0, len(row.Data))
	for k := range row.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := row.Data[k]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}
