package pricing

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTable []byte

// Source produces the pricing table for a Registry.
type Source interface {
	Load(ctx context.Context) ([]ModelPricing, error)
}

type pricingFile struct {
	Models []ModelPricing `yaml:"models"`
}

// DefaultSource serves the built-in table.
type DefaultSource struct{}

// Load implements Source.
func (DefaultSource) Load(_ context.Context) ([]ModelPricing, error) {
	return parseTable(defaultTable, "built-in pricing table")
}

// FileSource reads a YAML table from Path. Entries override the built-in
// table when Merge is set.
type FileSource struct {
	Path  string
	Merge bool
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) ([]ModelPricing, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading pricing file %s: %w", s.Path, err)
	}
	models, err := parseTable(data, s.Path)
	if err != nil {
		return nil, err
	}
	if !s.Merge {
		return models, nil
	}
	base, err := DefaultSource{}.Load(ctx)
	if err != nil {
		return nil, err
	}
	return append(base, models...), nil
}

func parseTable(data []byte, origin string) ([]ModelPricing, error) {
	var f pricingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", origin, err)
	}
	for i, m := range f.Models {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%s: entry %d: %w", origin, i, err)
		}
	}
	return f.Models, nil
}
