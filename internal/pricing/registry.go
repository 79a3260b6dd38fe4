// Package pricing holds per-model token prices. A Registry is constructed
// explicitly, loaded from a Source, and can be refreshed at runtime.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const tokensPerMillion = 1_000_000

// Registry errors.
var (
	ErrUnknownModel = errors.New("unknown model id")
	ErrNotLoaded    = errors.New("pricing registry not loaded")
)

// ModelPricing is the price of one model in USD per million tokens.
type ModelPricing struct {
	ID         string  `yaml:"id"`
	Prompt     float64 `yaml:"prompt"`
	Completion float64 `yaml:"completion"`
}

// Validate checks that the entry is usable.
func (p ModelPricing) Validate() error {
	if NormalizeID(p.ID) == "" {
		return errors.New("model id cannot be empty")
	}
	if p.Prompt < 0 || p.Completion < 0 {
		return fmt.Errorf("model %q: prices cannot be negative", p.ID)
	}
	return nil
}

// InputCost returns the USD cost of tokens prompt tokens.
func (p ModelPricing) InputCost(tokens int) float64 {
	return float64(tokens) / tokensPerMillion * p.Prompt
}

// OutputCost returns the USD cost of tokens completion tokens.
func (p ModelPricing) OutputCost(tokens int) float64 {
	return float64(tokens) / tokensPerMillion * p.Completion
}

// NormalizeID lowercases and trims a model id.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Registry resolves model ids to prices. Safe for concurrent use.
type Registry struct {
	source Source

	mu       sync.RWMutex
	models   map[string]ModelPricing
	byName   map[string][]string
	loadedAt time.Time
}

// NewRegistry returns an unloaded registry backed by source.
func NewRegistry(source Source) *Registry {
	if source == nil {
		source = DefaultSource{}
	}
	return &Registry{source: source}
}

// NewStaticRegistry returns a registry already loaded with models.
func NewStaticRegistry(models ...ModelPricing) *Registry {
	r := &Registry{source: staticSource(models)}
	r.install(models)
	return r
}

type staticSource []ModelPricing

func (s staticSource) Load(context.Context) ([]ModelPricing, error) { return s, nil }

// Load populates the registry if it has not been loaded yet.
func (r *Registry) Load(ctx context.Context) error {
	if r.Loaded() {
		return nil
	}
	return r.Refresh(ctx)
}

// Refresh re-reads the source and atomically replaces the table. On error
// the previous table stays in place.
func (r *Registry) Refresh(ctx context.Context) error {
	models, err := r.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading pricing: %w", err)
	}
	r.install(models)
	return nil
}

func (r *Registry) install(models []ModelPricing) {
	table := make(map[string]ModelPricing, len(models))
	byName := make(map[string][]string)
	for _, m := range models {
		id := NormalizeID(m.ID)
		if _, seen := table[id]; !seen {
			_, name := splitID(id)
			byName[name] = append(byName[name], id)
		}
		m.ID = id
		table[id] = m
	}
	for name := range byName {
		sort.Strings(byName[name])
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = table
	r.byName = byName
	r.loadedAt = time.Now()
}

// Loaded reports whether a table is installed.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.models != nil
}

// LoadedAt returns when the current table was installed.
func (r *Registry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

// Len returns the number of known models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// Lookup resolves id by normalized exact match, then by the bare model name
// with the provider prefix removed or matched against any provider.
func (r *Registry) Lookup(id string) (ModelPricing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.models == nil {
		return ModelPricing{}, ErrNotLoaded
	}

	norm := NormalizeID(id)
	if p, ok := r.models[norm]; ok {
		return p, nil
	}

	_, name := splitID(norm)
	if p, ok := r.models[name]; ok {
		return p, nil
	}
	if ids := r.byName[name]; len(ids) > 0 {
		return r.models[ids[0]], nil
	}

	return ModelPricing{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
}

func splitID(id string) (provider, name string) {
	if i := strings.Index(id, "/"); i >= 0 {
		return id[:i], id[i+1:]
	}
	return "", id
}
