// Package gateway defines the contract between the batch engine and the
// model providers it calls, plus an HTTP implementation speaking the
// OpenAI-compatible chat completions API and the Anthropic messages API.
package gateway

import (
	"context"
	"strings"
)

// ProviderKind identifies the wire protocol a provider speaks.
type ProviderKind int

const (
	// KindOpenAICompatible is the /chat/completions protocol.
	KindOpenAICompatible ProviderKind = iota
	// KindAnthropic is the /messages protocol.
	KindAnthropic
)

// String returns the kind's configuration name.
func (k ProviderKind) String() string {
	switch k {
	case KindAnthropic:
		return "anthropic"
	default:
		return "openai"
	}
}

// ParseProviderKind maps a configuration name to a ProviderKind.
func ParseProviderKind(s string) (ProviderKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "openai", "openai-compatible":
		return KindOpenAICompatible, true
	case "anthropic":
		return KindAnthropic, true
	default:
		return KindOpenAICompatible, false
	}
}

// CacheTTL is the lifetime requested for a provider-side prompt cache entry.
type CacheTTL string

// Supported cache lifetimes.
const (
	CacheTTL5m CacheTTL = "5m"
	CacheTTL1h CacheTTL = "1h"
)

// Valid reports whether t is one of the supported lifetimes.
func (t CacheTTL) Valid() bool {
	return t == CacheTTL5m || t == CacheTTL1h
}

// CachingHints asks the provider to cache the stable prefix of a request.
type CachingHints struct {
	EnablePromptCaching bool
	CacheTTL            CacheTTL
	CacheSystemPrompt   bool
}

// ChatRequest is a single-turn completion request.
type ChatRequest struct {
	// Provider is the provider id, the segment of the model id before the first "/".
	Provider string
	// Model is the provider-local model name, the segment after the first "/".
	Model           string
	Prompt          string
	SystemPrompt    string
	DeveloperPrompt string
	Temperature     *float64
	// Caching is nil when caching is disabled or unsupported by the provider.
	Caching *CachingHints
}

// ChatResponse carries the answer and the provider-reported usage.
type ChatResponse struct {
	Answer             string
	TokensIn           int
	TokensOut          int
	CostUSD            float64
	CacheCreatedTokens int
	CacheReadTokens    int
}

// Gateway sends chat requests to model providers.
type Gateway interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// SupportsPromptCaching reports whether caching hints are honored by provider.
	SupportsPromptCaching(provider string) bool
}

// TokenCounter is implemented by gateways able to count tokens natively.
// CountTokens returns ErrTokenCountUnsupported for providers without a
// counting endpoint.
type TokenCounter interface {
	CountTokens(ctx context.Context, provider, model, text string) (int, error)
}

// SplitModelID splits "provider/model" on the first "/". An id without a
// slash has an empty provider.
func SplitModelID(id string) (provider, model string) {
	id = strings.TrimSpace(id)
	if i := strings.Index(id, "/"); i >= 0 {
		return strings.ToLower(id[:i]), id[i+1:]
	}
	return "", id
}
