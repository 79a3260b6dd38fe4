package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyEngine     = "engine"
	keyCaching    = "caching"
	keyCheckpoint = "checkpoint"
	keyPricing    = "pricing"
	keyProviders  = "providers"
	keyLogging    = "logging"
)

// knownTopLevelKeys lists the YAML keys that correspond to exported Config fields.
// Keys not in this list are silently ignored during merge.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyEngine:     true,
	keyCaching:    true,
	keyCheckpoint: true,
	keyPricing:    true,
	keyProviders:  true,
	keyLogging:    true,
}

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// the target Config. Fields set in an overlay section replace the target's
// values; sections absent from the overlay are left unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]interface{}
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	// Empty or comment-only file: nothing to merge.
	if len(overlay) == 0 {
		return nil
	}

	for key, value := range overlay {
		if !knownTopLevelKeys[key] {
			continue
		}

		sectionBytes, marshalErr := yaml.Marshal(value)
		if marshalErr != nil {
			return fmt.Errorf("re-marshalling overlay section %q: %w", key, marshalErr)
		}

		if err = unmarshalSection(target, key, sectionBytes); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}

	return nil
}

// unmarshalSection decodes one section onto target. Struct sections are
// decoded over the current values so a partial section keeps the defaults
// it does not mention; the providers map is replaced wholesale.
func unmarshalSection(target *Config, key string, data []byte) error {
	switch key {
	case keyEngine:
		return yaml.Unmarshal(data, &target.Engine)
	case keyCaching:
		return yaml.Unmarshal(data, &target.Caching)
	case keyCheckpoint:
		return yaml.Unmarshal(data, &target.Checkpoint)
	case keyPricing:
		return yaml.Unmarshal(data, &target.Pricing)
	case keyLogging:
		return yaml.Unmarshal(data, &target.Logging)
	case keyProviders:
		var v map[string]ProviderConfig
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Providers = v
		return nil
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}
