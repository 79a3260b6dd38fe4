package engine

import (
	"maps"

	"github.com/rshade/promptbatch/internal/gateway"
	"github.com/rshade/promptbatch/internal/pricing"
)

// DefaultModel is used for rows that do not name a model.
const DefaultModel = "openai/gpt-4o-mini"

// RowStatus is the terminal outcome of one row.
type RowStatus string

// Row statuses. StatusErrorMissingKey is the only status that fails the
// whole batch.
const (
	StatusSuccess         RowStatus = "success"
	StatusError           RowStatus = "error"
	StatusErrorMissingKey RowStatus = "error_missing_key"
	StatusErrorAPI        RowStatus = "error_api"
)

// IsError reports whether s is any of the error statuses.
func (s RowStatus) IsError() bool {
	return s != StatusSuccess
}

// IsCritical reports whether s invalidates the whole batch.
func (s RowStatus) IsCritical() bool {
	return s == StatusErrorMissingKey
}

// Row is one unit of batch work. Rows are not modified once enqueued.
type Row struct {
	ID          string            `json:"id"                    yaml:"id"`
	Prompt      string            `json:"prompt"                yaml:"prompt"`
	Model       string            `json:"model,omitempty"       yaml:"model,omitempty"`
	System      string            `json:"system,omitempty"      yaml:"system,omitempty"`
	Developer   string            `json:"developer,omitempty"   yaml:"developer,omitempty"`
	Temperature *float64          `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Data        map[string]string `json:"data,omitempty"        yaml:"data,omitempty"`
}

// Result is the terminal record for a row. It is created once by the
// executor and never mutated.
type Result struct {
	ID                 string            `json:"id"`
	Prompt             string            `json:"prompt"`
	Model              string            `json:"model"`
	Status             RowStatus         `json:"status"`
	Response           string            `json:"response,omitempty"`
	TokensIn           *int              `json:"tokens_in,omitempty"`
	TokensOut          *int              `json:"tokens_out,omitempty"`
	CacheCreatedTokens int               `json:"cache_created_tokens,omitempty"`
	CacheReadTokens    int               `json:"cache_read_tokens,omitempty"`
	CostUSD            *float64          `json:"cost_usd,omitempty"`
	LatencyMs          *int64            `json:"latency_ms,omitempty"`
	Error              string            `json:"error,omitempty"`
	Data               map[string]string `json:"data,omitempty"`
}

// Settings are the user preferences consulted during execution.
type Settings struct {
	PromptCachingEnabled bool
	PromptCacheTTL       gateway.CacheTTL
}

// CredentialChecker reports whether a provider has a configured credential.
type CredentialChecker interface {
	HasCredential(provider string) bool
}

// PriceLookup resolves a model id to its pricing.
type PriceLookup interface {
	Lookup(id string) (pricing.ModelPricing, error)
}

func copyData(data map[string]string) map[string]string {
	if data == nil {
		return nil
	}
	return maps.Clone(data)
}
