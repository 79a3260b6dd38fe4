package gateway

import (
	"context"
	"strings"
)

const (
	anthropicVersion          = "2023-06-01"
	defaultAnthropicMaxTokens = 4096
)

type anthropicCacheControl struct {
	Type string `json:"type"`
	TTL  string `json:"ttl,omitempty"`
}

type anthropicBlock struct {
	Type         string                 `json:"type"`
	Text         string                 `json:"text"`
	CacheControl *anthropicCacheControl `json:"cache_control,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	System      []anthropicBlock   `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
	Usage   struct {
		InputTokens              int `json:"input_tokens"`
		OutputTokens             int `json:"output_tokens"`
		CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
		CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	} `json:"usage"`
}

type anthropicCountResponse struct {
	InputTokens int `json:"input_tokens"`
}

func anthropicHeaders(key string) map[string]string {
	return map[string]string{
		"x-api-key":         key,
		"anthropic-version": anthropicVersion,
	}
}

func (g *HTTPGateway) chatAnthropic(
	ctx context.Context,
	ep Endpoint,
	key string,
	req ChatRequest,
) (*ChatResponse, error) {
	body := buildAnthropicRequest(req, g.maxTokens)

	var out anthropicResponse
	url := strings.TrimRight(ep.BaseURL, "/") + "/messages"
	if err := g.postJSON(ctx, req.Provider, url, anthropicHeaders(key), body, &out); err != nil {
		return nil, err
	}

	var answer strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}

	return &ChatResponse{
		Answer:             answer.String(),
		TokensIn:           out.Usage.InputTokens,
		TokensOut:          out.Usage.OutputTokens,
		CacheCreatedTokens: out.Usage.CacheCreationInputTokens,
		CacheReadTokens:    out.Usage.CacheReadInputTokens,
	}, nil
}

func (g *HTTPGateway) countAnthropic(
	ctx context.Context,
	ep Endpoint,
	key, provider, model, text string,
) (int, error) {
	body := anthropicRequest{
		Model: model,
		Messages: []anthropicMessage{{
			Role:    "user",
			Content: []anthropicBlock{{Type: "text", Text: text}},
		}},
	}

	var out anthropicCountResponse
	url := strings.TrimRight(ep.BaseURL, "/") + "/messages/count_tokens"
	if err := g.postJSON(ctx, provider, url, anthropicHeaders(key), body, &out); err != nil {
		return 0, err
	}
	return out.InputTokens, nil
}

// buildAnthropicRequest places system and developer prompts in the system
// blocks. With caching enabled the last system block carries the cache
// breakpoint, or the user turn does when the system prompt is not cached.
func buildAnthropicRequest(req ChatRequest, maxTokens int) anthropicRequest {
	var system []anthropicBlock
	if req.SystemPrompt != "" {
		system = append(system, anthropicBlock{Type: "text", Text: req.SystemPrompt})
	}
	if req.DeveloperPrompt != "" {
		system = append(system, anthropicBlock{Type: "text", Text: req.DeveloperPrompt})
	}

	user := anthropicBlock{Type: "text", Text: req.Prompt}

	if c := req.Caching; c != nil && c.EnablePromptCaching {
		cc := &anthropicCacheControl{Type: "ephemeral"}
		if c.CacheTTL == CacheTTL1h {
			cc.TTL = string(CacheTTL1h)
		}
		if c.CacheSystemPrompt && len(system) > 0 {
			system[len(system)-1].CacheControl = cc
		} else {
			user.CacheControl = cc
		}
	}

	return anthropicRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    []anthropicMessage{{Role: "user", Content: []anthropicBlock{user}}},
		Temperature: req.Temperature,
	}
}
