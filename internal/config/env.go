package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override, e.g.
// PROMPTBATCH_ENGINE_MAX_IN_FLIGHT or PROMPTBATCH_CHECKPOINT_REDIS_ADDR.
const EnvPrefix = "PROMPTBATCH_"

// ApplyEnv overrides cfg fields from PROMPTBATCH_* environment variables.
// Unset variables leave the current value in place.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment overrides: %w", err)
	}
	return nil
}
