package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rshade/promptbatch/internal/mocks"
	"github.com/rshade/promptbatch/internal/pricing"
	"github.com/rshade/promptbatch/internal/tokens"
)

func TestEstimator_SingleRowHeuristic(t *testing.T) {
	prices := testPrices()
	est := NewEstimator(tokens.NewCounter(nil), prices, "")

	got, err := est.Estimate(context.Background(), []Row{{ID: "1", Prompt: "Hi", Model: "openai/gpt-4o"}})
	require.NoError(t, err)

	require.Len(t, got.PerRow, 1)
	assert.Equal(t, "1", got.PerRow[0].ID)
	assert.Equal(t, 1, got.PerRow[0].TokensIn)

	p, err := prices.Lookup("openai/gpt-4o")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/1e6*p.Prompt, got.PerRow[0].EstCost, 1e-15)
	assert.InDelta(t, got.PerRow[0].EstCost, got.TotalUSD, 1e-15)
}

func TestEstimator_AccumulatesAndIncludesData(t *testing.T) {
	est := NewEstimator(tokens.NewCounter(nil), testPrices(), "openai/gpt-4o")

	rows := []Row{
		{ID: "a", Prompt: "abcd", System: "abcd", Data: map[string]string{"x": "abcd"}},
		{ID: "b", Prompt: "abcdefgh", Model: "anthropic/claude-sonnet-4"},
	}
	got, err := est.Estimate(context.Background(), rows)
	require.NoError(t, err)

	require.Len(t, got.PerRow, 2)
	// "abcd\nabcd\nabcd" is 14 characters.
	assert.Equal(t, 4, got.PerRow[0].TokensIn)
	assert.Equal(t, "openai/gpt-4o", got.PerRow[0].Model)
	assert.Equal(t, 2, got.PerRow[1].TokensIn)
	assert.InDelta(t, 4.0/1e6*2.5+2.0/1e6*3, got.TotalUSD, 1e-15)
}

func TestEstimator_UnknownModelFails(t *testing.T) {
	est := NewEstimator(tokens.NewCounter(nil), testPrices(), "")
	_, err := est.Estimate(context.Background(), []Row{
		{ID: "ok", Prompt: "x", Model: "openai/gpt-4o"},
		{ID: "bad", Prompt: "x", Model: "bogus/nope"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrUnknownModel)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestEstimator_NativeCounting(t *testing.T) {
	ctrl := gomock.NewController(t)
	native := mocks.NewMockTokenCounter(ctrl)
	native.EXPECT().CountTokens(gomock.Any(), "anthropic", "claude-sonnet-4", "Hi").Return(7, nil)

	est := NewEstimator(tokens.NewCounter(native), testPrices(), "")
	got, err := est.Estimate(context.Background(), []Row{{ID: "1", Prompt: "Hi", Model: "anthropic/claude-sonnet-4"}})
	require.NoError(t, err)
	assert.Equal(t, 7, got.PerRow[0].TokensIn)
}

func TestEstimationText(t *testing.T) {
	row := Row{
		System:    "sys",
		Developer: "dev",
		Prompt:    "user {{b}}",
		Data:      map[string]string{"b": "B", "a": "A", "empty": ""},
	}
	assert.Equal(t, "sys\ndev\nuser {{b}}\nA\nB", EstimationText(row))
	assert.Equal(t, "Hi", EstimationText(Row{Prompt: "Hi"}))
}

func TestEstimator_Empty(t *testing.T) {
	est := NewEstimator(tokens.NewCounter(nil), testPrices(), "")
	got, err := est.Estimate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got.PerRow)
	assert.Zero(t, got.TotalUSD)
}
