package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 5 * time.Minute
	maxErrorBodyBytes  = 64 << 10
)

// Endpoint describes how to reach one provider.
type Endpoint struct {
	Kind          ProviderKind
	BaseURL       string
	PromptCaching bool
}

// KeySource resolves the API key for a provider id.
type KeySource interface {
	APIKey(provider string) (string, bool)
}

// DefaultEndpoints returns the built-in provider table.
func DefaultEndpoints() map[string]Endpoint {
	return map[string]Endpoint{
		"openai":     {Kind: KindOpenAICompatible, BaseURL: "https://api.openai.com/v1"},
		"anthropic":  {Kind: KindAnthropic, BaseURL: "https://api.anthropic.com/v1", PromptCaching: true},
		"openrouter": {Kind: KindOpenAICompatible, BaseURL: "https://openrouter.ai/api/v1", PromptCaching: true},
		"groq":       {Kind: KindOpenAICompatible, BaseURL: "https://api.groq.com/openai/v1"},
		"mistral":    {Kind: KindOpenAICompatible, BaseURL: "https://api.mistral.ai/v1"},
		"deepseek":   {Kind: KindOpenAICompatible, BaseURL: "https://api.deepseek.com/v1"},
		"xai":        {Kind: KindOpenAICompatible, BaseURL: "https://api.x.ai/v1"},
		"together":   {Kind: KindOpenAICompatible, BaseURL: "https://api.together.xyz/v1"},
		"google": {
			Kind:    KindOpenAICompatible,
			BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
		},
	}
}

// HTTPGateway calls providers over HTTPS.
type HTTPGateway struct {
	client    *http.Client
	endpoints map[string]Endpoint
	keys      KeySource
	maxTokens int
}

// HTTPOption configures an HTTPGateway.
type HTTPOption func(*HTTPGateway)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(g *HTTPGateway) { g.client = c }
}

// WithEndpoint adds or overrides the endpoint for provider.
func WithEndpoint(provider string, ep Endpoint) HTTPOption {
	return func(g *HTTPGateway) { g.endpoints[strings.ToLower(provider)] = ep }
}

// WithMaxTokens sets the completion token limit sent to providers that require one.
func WithMaxTokens(n int) HTTPOption {
	return func(g *HTTPGateway) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// NewHTTPGateway returns a gateway using DefaultEndpoints and keys.
func NewHTTPGateway(keys KeySource, opts ...HTTPOption) *HTTPGateway {
	g := &HTTPGateway{
		client:    &http.Client{Timeout: defaultHTTPTimeout},
		endpoints: DefaultEndpoints(),
		keys:      keys,
		maxTokens: defaultAnthropicMaxTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SupportsPromptCaching implements Gateway.
func (g *HTTPGateway) SupportsPromptCaching(provider string) bool {
	ep, ok := g.endpoints[strings.ToLower(provider)]
	return ok && ep.PromptCaching
}

// Chat implements Gateway.
func (g *HTTPGateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ep, key, err := g.resolve(req.Provider)
	if err != nil {
		return nil, err
	}
	if ep.Kind == KindAnthropic {
		return g.chatAnthropic(ctx, ep, key, req)
	}
	return g.chatOpenAI(ctx, ep, key, req)
}

// CountTokens implements TokenCounter for providers with a counting endpoint.
func (g *HTTPGateway) CountTokens(ctx context.Context, provider, model, text string) (int, error) {
	ep, key, err := g.resolve(provider)
	if err != nil {
		return 0, err
	}
	if ep.Kind != KindAnthropic {
		return 0, ErrTokenCountUnsupported
	}
	return g.countAnthropic(ctx, ep, key, provider, model, text)
}

func (g *HTTPGateway) resolve(provider string) (Endpoint, string, error) {
	provider = strings.ToLower(provider)
	ep, ok := g.endpoints[provider]
	if !ok {
		return Endpoint{}, "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	key, ok := g.keys.APIKey(provider)
	if !ok || key == "" {
		return Endpoint{}, "", fmt.Errorf("%w for provider %q", ErrMissingAPIKey, provider)
	}
	return ep, key, nil
}

// postJSON sends body to url and decodes a 2xx answer into out.
func (g *HTTPGateway) postJSON(
	ctx context.Context,
	provider, url string,
	headers map[string]string,
	body, out any,
) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", provider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building %s request: %w", provider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calling %s: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", provider, err)
	}
	return nil
}

// errorMessage extracts {"error":{"message":...}} or {"error":"..."} bodies.
func errorMessage(raw []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &flat) == nil && flat.Error != "" {
		return flat.Error
	}
	return strings.TrimSpace(string(raw))
}
