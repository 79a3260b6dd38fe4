package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rshade/promptbatch/internal/gateway"
	"github.com/rshade/promptbatch/internal/logging"
)

// Executor runs one row end to end.
type Executor struct {
	gateway      gateway.Gateway
	credentials  CredentialChecker
	prices       PriceLookup
	settings     Settings
	defaultModel string
	rowTimeout   time.Duration
	now          func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSettings sets the caching preferences.
func WithSettings(s Settings) ExecutorOption {
	return func(e *Executor) { e.settings = s }
}

// WithDefaultModel sets the model used for rows without one.
func WithDefaultModel(id string) ExecutorOption {
	return func(e *Executor) {
		if strings.TrimSpace(id) != "" {
			e.defaultModel = id
		}
	}
}

// WithRowTimeout bounds each provider call. Zero disables the bound.
func WithRowTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.rowTimeout = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// NewExecutor returns an Executor calling gw.
func NewExecutor(
	gw gateway.Gateway,
	credentials CredentialChecker,
	prices PriceLookup,
	opts ...ExecutorOption,
) *Executor {
	e := &Executor{
		gateway:      gw,
		credentials:  credentials,
		prices:       prices,
		defaultModel: DefaultModel,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveModel returns the model id and provider for row, applying the
// default model and default provider.
func (e *Executor) ResolveModel(row Row) (modelID, provider string) {
	return resolveModel(row.Model, e.defaultModel)
}

func resolveModel(rowModel, defaultModel string) (modelID, provider string) {
	modelID = strings.TrimSpace(rowModel)
	if modelID == "" {
		modelID = defaultModel
	}
	provider, _ = gateway.SplitModelID(modelID)
	if provider == "" {
		provider, _ = gateway.SplitModelID(defaultModel)
	}
	return modelID, provider
}

// Execute runs row and always returns a terminal Result.
func (e *Executor) Execute(ctx context.Context, row Row) Result {
	start := e.now()
	modelID, provider := e.ResolveModel(row)
	log := logging.FromContext(ctx).With().
		Str("component", "executor").
		Str("row_id", row.ID).
		Str("model", modelID).
		Logger()

	res := Result{
		ID:     row.ID,
		Prompt: row.Prompt,
		Model:  modelID,
		Data:   copyData(row.Data),
	}
	finish := func(status RowStatus, msg string) Result {
		latency := e.now().Sub(start).Milliseconds()
		res.Status = status
		res.Error = msg
		res.LatencyMs = &latency
		return res
	}

	prompt, missing := FillTemplate(row.Prompt, row.Data)
	if len(missing) > 0 {
		return finish(StatusError, "missing values for template keys: "+strings.Join(missing, ", "))
	}
	res.Prompt = prompt

	if e.credentials == nil || !e.credentials.HasCredential(provider) {
		return finish(StatusErrorMissingKey, fmt.Sprintf("no API key configured for provider %q", provider))
	}

	// A call that cannot be priced is never sent.
	if _, err := e.prices.Lookup(modelID); err != nil {
		return finish(StatusError, fmt.Sprintf("pricing %s: %v", modelID, err))
	}

	_, model := gateway.SplitModelID(modelID)
	req := gateway.ChatRequest{
		Provider:        provider,
		Model:           model,
		Prompt:          prompt,
		SystemPrompt:    row.System,
		DeveloperPrompt: row.Developer,
		Temperature:     row.Temperature,
	}
	if e.settings.PromptCachingEnabled && e.gateway.SupportsPromptCaching(provider) {
		ttl := e.settings.PromptCacheTTL
		if !ttl.Valid() {
			ttl = gateway.CacheTTL5m
		}
		req.Caching = &gateway.CachingHints{
			EnablePromptCaching: true,
			CacheTTL:            ttl,
			CacheSystemPrompt:   row.System != "",
		}
	}

	callCtx := ctx
	if e.rowTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.rowTimeout)
		defer cancel()
	}

	// Latency from here on covers the provider call only.
	start = e.now()
	resp, err := e.gateway.Chat(callCtx, req)
	if err != nil {
		status := ClassifyError(err)
		log.Debug().Ctx(ctx).Str("status", string(status)).Err(err).Msg("provider call failed")
		return finish(status, err.Error())
	}

	tokensIn, tokensOut := resp.TokensIn, resp.TokensOut
	res.Response = resp.Answer
	res.TokensIn = &tokensIn
	res.TokensOut = &tokensOut
	res.CacheCreatedTokens = resp.CacheCreatedTokens
	res.CacheReadTokens = resp.CacheReadTokens

	cost, err := ComputeCost(e.prices, modelID, tokensIn, tokensOut)
	if err != nil {
		log.Warn().Ctx(ctx).Err(err).Msg("cannot price completed call")
		return finish(StatusError, err.Error())
	}
	res.CostUSD = &cost

	out := finish(StatusSuccess, "")
	log.Debug().
		Ctx(ctx).
		Int("tokens_in", tokensIn).
		Int("tokens_out", tokensOut).
		Float64("cost_usd", cost).
		Int64("latency_ms", *out.LatencyMs).
		Msg("row completed")
	return out
}
