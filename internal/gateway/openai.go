package gateway

import (
	"context"
	"strings"
)

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens        int     `json:"prompt_tokens"`
		CompletionTokens    int     `json:"completion_tokens"`
		Cost                float64 `json:"cost"`
		PromptTokensDetails struct {
			CachedTokens int `json:"cached_tokens"`
		} `json:"prompt_tokens_details"`
	} `json:"usage"`
}

func (g *HTTPGateway) chatOpenAI(
	ctx context.Context,
	ep Endpoint,
	key string,
	req ChatRequest,
) (*ChatResponse, error) {
	body := openAIRequest{
		Model:       req.Model,
		Messages:    openAIMessages(req),
		Temperature: req.Temperature,
	}

	var out openAIResponse
	url := strings.TrimRight(ep.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + key}
	if err := g.postJSON(ctx, req.Provider, url, headers, body, &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return &ChatResponse{
		Answer:          out.Choices[0].Message.Content,
		TokensIn:        out.Usage.PromptTokens,
		TokensOut:       out.Usage.CompletionTokens,
		CostUSD:         out.Usage.Cost,
		CacheReadTokens: out.Usage.PromptTokensDetails.CachedTokens,
	}, nil
}

// openAIMessages orders system, developer and user turns. Only OpenAI itself
// understands the developer role; other compatible APIs get a second system turn.
func openAIMessages(req ChatRequest) []openAIMessage {
	msgs := make([]openAIMessage, 0, 3)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openAIMessage{Role: "system", Content: req.SystemPrompt})
	}
	if req.DeveloperPrompt != "" {
		role := "system"
		if req.Provider == "openai" {
			role = "developer"
		}
		msgs = append(msgs, openAIMessage{Role: role, Content: req.DeveloperPrompt})
	}
	return append(msgs, openAIMessage{Role: "user", Content: req.Prompt})
}
