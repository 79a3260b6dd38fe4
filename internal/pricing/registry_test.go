package pricing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewStaticRegistry(
		ModelPricing{ID: "OpenAI/GPT-4o", Prompt: 2.5, Completion: 10},
		ModelPricing{ID: "anthropic/claude-sonnet-4", Prompt: 3, Completion: 15},
		ModelPricing{ID: "local-model", Prompt: 0, Completion: 0},
	)

	tests := []struct {
		name   string
		id     string
		wantID string
	}{
		{"exact normalized", " openai/gpt-4o ", "openai/gpt-4o"},
		{"bare name", "gpt-4o", "openai/gpt-4o"},
		{"other provider prefix", "openrouter/gpt-4o", "openai/gpt-4o"},
		{"nested router id", "openrouter/anthropic/claude-sonnet-4", "anthropic/claude-sonnet-4"},
		{"unprefixed entry", "ollama/local-model", "local-model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := r.Lookup("bogus/nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownModel)
		assert.Contains(t, err.Error(), "bogus/nope")
	})
}

func TestRegistry_NotLoaded(t *testing.T) {
	r := NewRegistry(nil)
	assert.False(t, r.Loaded())

	_, err := r.Lookup("openai/gpt-4o")
	assert.ErrorIs(t, err, ErrNotLoaded)

	require.NoError(t, r.Load(context.Background()))
	assert.True(t, r.Loaded())
	assert.Positive(t, r.Len())

	p, err := r.Lookup("openai/gpt-4o")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, p.Prompt, 1e-9)
}

type failingSource struct{}

func (failingSource) Load(context.Context) ([]ModelPricing, error) {
	return nil, errors.New("disk on fire")
}

func TestRegistry_RefreshKeepsTableOnError(t *testing.T) {
	r := NewStaticRegistry(ModelPricing{ID: "a/b", Prompt: 1})
	r.source = failingSource{}

	err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")

	_, err = r.Lookup("a/b")
	assert.NoError(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  - id: acme/rocket-1
    prompt: 1.5
    completion: 3
  - id: openai/gpt-4o
    prompt: 9
    completion: 9
`), 0600))

	t.Run("replace", func(t *testing.T) {
		r := NewRegistry(FileSource{Path: path})
		require.NoError(t, r.Load(context.Background()))
		assert.Equal(t, 2, r.Len())
	})

	t.Run("merge overrides defaults", func(t *testing.T) {
		r := NewRegistry(FileSource{Path: path, Merge: true})
		require.NoError(t, r.Load(context.Background()))
		p, err := r.Lookup("openai/gpt-4o")
		require.NoError(t, err)
		assert.InDelta(t, 9.0, p.Prompt, 1e-9)
		_, err = r.Lookup("anthropic/claude-sonnet-4")
		assert.NoError(t, err)
	})

	t.Run("invalid entry", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("models:\n  - id: x/y\n    prompt: -1\n"), 0600))
		_, err := FileSource{Path: bad}.Load(context.Background())
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := FileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}.Load(context.Background())
		assert.Error(t, err)
	})
}

func TestModelPricingCosts(t *testing.T) {
	p := ModelPricing{ID: "x/y", Prompt: 2.5, Completion: 10}
	assert.InDelta(t, 2.5e-6, p.InputCost(1), 1e-15)
	assert.InDelta(t, 0.0005, p.OutputCost(50), 1e-12)
}
