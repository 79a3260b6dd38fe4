package gateway

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitModelID(t *testing.T) {
	tests := []struct {
		id       string
		provider string
		model    string
	}{
		{"openai/gpt-4o", "openai", "gpt-4o"},
		{"OpenRouter/anthropic/claude-3.5-sonnet", "openrouter", "anthropic/claude-3.5-sonnet"},
		{"gpt-4o", "", "gpt-4o"},
		{" anthropic/claude-sonnet-4 ", "anthropic", "claude-sonnet-4"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, m := SplitModelID(tt.id)
			assert.Equal(t, tt.provider, p)
			assert.Equal(t, tt.model, m)
		})
	}
}

func TestParseProviderKind(t *testing.T) {
	k, ok := ParseProviderKind("Anthropic")
	assert.True(t, ok)
	assert.Equal(t, KindAnthropic, k)
	assert.Equal(t, "anthropic", k.String())

	k, ok = ParseProviderKind("")
	assert.True(t, ok)
	assert.Equal(t, KindOpenAICompatible, k)

	_, ok = ParseProviderKind("smoke-signals")
	assert.False(t, ok)
}

func TestCacheTTLValid(t *testing.T) {
	assert.True(t, CacheTTL5m.Valid())
	assert.True(t, CacheTTL1h.Valid())
	assert.False(t, CacheTTL("10m").Valid())
}

func TestHTTPStatus(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &StatusError{Provider: "openai", StatusCode: 429, Message: "slow down"})
	assert.Equal(t, 429, HTTPStatus(err))
	assert.Contains(t, err.Error(), "HTTP 429: slow down")
	assert.Equal(t, 0, HTTPStatus(fmt.Errorf("plain")))
}
