package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/promptbatch/internal/engine"
	"github.com/rshade/promptbatch/internal/engine/batch"
	"github.com/rshade/promptbatch/internal/engine/checkpoint"
	"github.com/rshade/promptbatch/internal/gateway"
)

// configFileName is the name of the YAML file under the config directory.
const configFileName = "config.yaml"

// Config is the promptbatch configuration. Values come from built-in
// defaults, then config.yaml, then PROMPTBATCH_* environment variables.
type Config struct {
	Engine     EngineConfig              `yaml:"engine"     envPrefix:"ENGINE_"`
	Caching    CachingConfig             `yaml:"caching"    envPrefix:"CACHING_"`
	Checkpoint CheckpointConfig          `yaml:"checkpoint" envPrefix:"CHECKPOINT_"`
	Pricing    PricingConfig             `yaml:"pricing"    envPrefix:"PRICING_"`
	Providers  map[string]ProviderConfig `yaml:"providers,omitempty"`
	Logging    LoggingConfig             `yaml:"logging"    envPrefix:"LOG_"`
}

// EngineConfig controls batch scheduling.
type EngineConfig struct {
	MaxInFlight     int           `yaml:"max_in_flight"    env:"MAX_IN_FLIGHT"`
	DefaultModel    string        `yaml:"default_model"    env:"DEFAULT_MODEL"`
	RowTimeout      time.Duration `yaml:"row_timeout"      env:"ROW_TIMEOUT"`
	CheckpointEvery int           `yaml:"checkpoint_every" env:"CHECKPOINT_EVERY"`
}

// CachingConfig controls provider-side prompt caching.
type CachingConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	TTL     string `yaml:"ttl"     env:"TTL"`
}

// CheckpointConfig selects and configures the checkpoint backend.
type CheckpointConfig struct {
	Backend   string      `yaml:"backend"   env:"BACKEND"`
	Dir       string      `yaml:"dir"       env:"DIR"`
	Retention string      `yaml:"retention" env:"RETENTION"`
	Redis     RedisConfig `yaml:"redis"     envPrefix:"REDIS_"`
}

// RedisConfig holds the Redis checkpoint backend connection.
type RedisConfig struct {
	URL      string `yaml:"url,omitempty"      env:"URL"`
	Addr     string `yaml:"addr,omitempty"     env:"ADDR"`
	Password string `yaml:"password,omitempty" env:"PASSWORD"`
	DB       int    `yaml:"db,omitempty"       env:"DB"`
	Prefix   string `yaml:"prefix,omitempty"   env:"PREFIX"`
}

// PricingConfig points at an optional pricing table.
type PricingConfig struct {
	File  string `yaml:"file,omitempty" env:"FILE"`
	Merge bool   `yaml:"merge"          env:"MERGE"`
}

// ProviderConfig overrides or adds a provider endpoint.
type ProviderConfig struct {
	Kind          string `yaml:"kind,omitempty"`
	BaseURL       string `yaml:"base_url,omitempty"`
	APIKeyEnv     string `yaml:"api_key_env,omitempty"`
	PromptCaching bool   `yaml:"prompt_caching,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"          env:"LEVEL"`
	Format string `yaml:"format"         env:"FORMAT"`
	File   string `yaml:"file,omitempty" env:"FILE"`
}

// New returns a Config holding the built-in defaults.
func New() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxInFlight:     batch.DefaultMaxInFlight,
			DefaultModel:    engine.DefaultModel,
			CheckpointEvery: batch.DefaultCheckpointEvery,
		},
		Caching: CachingConfig{
			Enabled: true,
			TTL:     string(gateway.CacheTTL5m),
		},
		Checkpoint: CheckpointConfig{
			Backend:   checkpoint.BackendFile,
			Retention: "7d",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: checkpoint.DefaultKeyPrefix,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (the default
// config file when path is empty) and the environment. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, configFileName)
	}

	if _, err := os.Stat(path); err == nil {
		if mergeErr := ShallowMergeYAML(cfg, path); mergeErr != nil {
			return nil, mergeErr
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking config file %s: %w", path, err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if mkErr := os.MkdirAll(filepath.Dir(path), 0o700); mkErr != nil {
		return fmt.Errorf("creating config directory: %w", mkErr)
	}
	if writeErr := os.WriteFile(path, data, 0o600); writeErr != nil {
		return fmt.Errorf("writing config file %s: %w", path, writeErr)
	}
	return nil
}

// DefaultConfigPath returns the path of the user config file.
func DefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	if c.Engine.MaxInFlight < batch.MinMaxInFlight || c.Engine.MaxInFlight > batch.MaxMaxInFlight {
		errs = append(errs, fmt.Errorf("engine.max_in_flight: %w: got %d",
			batch.ErrInvalidConcurrency, c.Engine.MaxInFlight))
	}
	if c.Engine.RowTimeout < 0 {
		errs = append(errs, errors.New("engine.row_timeout must not be negative"))
	}
	if c.Engine.CheckpointEvery < 1 {
		errs = append(errs, errors.New("engine.checkpoint_every must be at least 1"))
	}
	if provider, _ := gateway.SplitModelID(c.Engine.DefaultModel); provider == "" {
		errs = append(errs, fmt.Errorf("engine.default_model %q must be provider/model", c.Engine.DefaultModel))
	}
	if !gateway.CacheTTL(c.Caching.TTL).Valid() {
		errs = append(errs, fmt.Errorf("caching.ttl must be %q or %q, got %q",
			gateway.CacheTTL5m, gateway.CacheTTL1h, c.Caching.TTL))
	}
	switch strings.ToLower(c.Checkpoint.Backend) {
	case checkpoint.BackendFile, checkpoint.BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("checkpoint.backend must be %q or %q, got %q",
			checkpoint.BackendFile, checkpoint.BackendRedis, c.Checkpoint.Backend))
	}
	if _, err := checkpoint.ParseRetention(c.Checkpoint.Retention); err != nil {
		errs = append(errs, fmt.Errorf("checkpoint.retention: %w", err))
	}
	for name, p := range c.Providers {
		if _, ok := gateway.ParseProviderKind(p.Kind); !ok {
			errs = append(errs, fmt.Errorf("providers.%s.kind: unknown kind %q", name, p.Kind))
		}
	}

	return errors.Join(errs...)
}

// Settings returns the execution preferences for the row executor.
func (c *Config) Settings() engine.Settings {
	return engine.Settings{
		PromptCachingEnabled: c.Caching.Enabled,
		PromptCacheTTL:       gateway.CacheTTL(c.Caching.TTL),
	}
}

// CheckpointOptions returns the backend options for checkpoint.Open.
func (c *Config) CheckpointOptions() (checkpoint.Options, error) {
	retention, err := checkpoint.ParseRetention(c.Checkpoint.Retention)
	if err != nil {
		return checkpoint.Options{}, err
	}
	dir := c.Checkpoint.Dir
	if dir == "" {
		if dir, err = GetCheckpointDir(); err != nil {
			return checkpoint.Options{}, err
		}
	}
	return checkpoint.Options{
		Backend:   c.Checkpoint.Backend,
		Dir:       dir,
		Retention: retention,
		Redis: checkpoint.RedisOptions{
			URL:      c.Checkpoint.Redis.URL,
			Addr:     c.Checkpoint.Redis.Addr,
			Password: c.Checkpoint.Redis.Password,
			DB:       c.Checkpoint.Redis.DB,
			Prefix:   c.Checkpoint.Redis.Prefix,
		},
	}, nil
}

// Endpoints returns gateway endpoint overrides for the configured
// providers. Unset fields keep the built-in values.
func (c *Config) Endpoints() map[string]gateway.Endpoint {
	defaults := gateway.DefaultEndpoints()
	out := make(map[string]gateway.Endpoint, len(c.Providers))
	for name, p := range c.Providers {
		name = strings.ToLower(name)
		ep := defaults[name]
		if p.Kind != "" {
			ep.Kind, _ = gateway.ParseProviderKind(p.Kind)
		}
		if p.BaseURL != "" {
			ep.BaseURL = p.BaseURL
		}
		if p.PromptCaching {
			ep.PromptCaching = true
		}
		out[name] = ep
	}
	return out
}
