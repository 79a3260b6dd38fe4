package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/promptbatch/internal/engine/batch"
	"github.com/rshade/promptbatch/internal/engine/checkpoint"
	"github.com/rshade/promptbatch/internal/gateway"
	"github.com/rshade/promptbatch/internal/logging"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, batch.DefaultMaxInFlight, cfg.Engine.MaxInFlight)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Engine.DefaultModel)
	assert.Equal(t, 10, cfg.Engine.CheckpointEvery)
	assert.True(t, cfg.Caching.Enabled)
	assert.Equal(t, "5m", cfg.Caching.TTL)
	assert.Equal(t, checkpoint.BackendFile, cfg.Checkpoint.Backend)
	assert.Equal(t, "7d", cfg.Checkpoint.Retention)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  max_in_flight: 5
  default_model: anthropic/claude-sonnet-4
checkpoint:
  backend: redis
  redis:
    addr: redis:6379
`), 0o600))
	t.Setenv("PROMPTBATCH_ENGINE_MAX_IN_FLIGHT", "7")
	t.Setenv("PROMPTBATCH_CHECKPOINT_REDIS_DB", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Engine.MaxInFlight, "env wins over file")
	assert.Equal(t, "anthropic/claude-sonnet-4", cfg.Engine.DefaultModel)
	assert.Equal(t, 10, cfg.Engine.CheckpointEvery, "unset field keeps default")
	assert.Equal(t, "redis", cfg.Checkpoint.Backend)
	assert.Equal(t, "redis:6379", cfg.Checkpoint.Redis.Addr)
	assert.Equal(t, 2, cfg.Checkpoint.Redis.DB)
}

func TestLoad_DefaultPathFromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PROMPTBATCH_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"),
		[]byte("logging:\n  level: debug\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_in_flight: 42\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, batch.ErrInvalidConcurrency)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing overlay YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"concurrency low", func(c *Config) { c.Engine.MaxInFlight = 0 }, "engine.max_in_flight"},
		{"concurrency high", func(c *Config) { c.Engine.MaxInFlight = 11 }, "engine.max_in_flight"},
		{"negative timeout", func(c *Config) { c.Engine.RowTimeout = -time.Second }, "row_timeout"},
		{"checkpoint every", func(c *Config) { c.Engine.CheckpointEvery = 0 }, "checkpoint_every"},
		{"model without provider", func(c *Config) { c.Engine.DefaultModel = "gpt-4o" }, "default_model"},
		{"cache ttl", func(c *Config) { c.Caching.TTL = "10m" }, "caching.ttl"},
		{"backend", func(c *Config) { c.Checkpoint.Backend = "s3" }, "checkpoint.backend"},
		{"retention", func(c *Config) { c.Checkpoint.Retention = "365d" }, "checkpoint.retention"},
		{"provider kind", func(c *Config) {
			c.Providers = map[string]ProviderConfig{"local": {Kind: "grpc"}}
		}, "providers.local.kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := New()
	cfg.Engine.MaxInFlight = 0
	cfg.Caching.TTL = "2h"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_in_flight")
	assert.Contains(t, err.Error(), "caching.ttl")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := New()
	cfg.Engine.MaxInFlight = 4
	cfg.Providers = map[string]ProviderConfig{"local": {BaseURL: "http://localhost:8080/v1"}}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Engine.MaxInFlight)
	assert.Equal(t, "http://localhost:8080/v1", loaded.Providers["local"].BaseURL)
}

func TestSettings(t *testing.T) {
	cfg := New()
	cfg.Caching.TTL = "1h"

	s := cfg.Settings()
	assert.True(t, s.PromptCachingEnabled)
	assert.Equal(t, gateway.CacheTTL1h, s.PromptCacheTTL)
}

func TestCheckpointOptions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PROMPTBATCH_HOME", home)

	cfg := New()
	opts, err := cfg.CheckpointOptions()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "checkpoints"), opts.Dir)
	assert.Equal(t, checkpoint.DefaultRetention, opts.Retention)
	assert.Equal(t, "localhost:6379", opts.Redis.Addr)

	cfg.Checkpoint.Dir = "/var/lib/pb"
	cfg.Checkpoint.Retention = "0"
	opts, err = cfg.CheckpointOptions()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/pb", opts.Dir)
	assert.Zero(t, opts.Retention)
}

func TestEndpoints(t *testing.T) {
	cfg := New()
	cfg.Providers = map[string]ProviderConfig{
		"OpenAI": {BaseURL: "https://proxy.internal/v1"},
		"local":  {Kind: "openai-compatible", BaseURL: "http://localhost:11434/v1"},
		"claude": {Kind: "anthropic", PromptCaching: true},
	}

	eps := cfg.Endpoints()
	require.Len(t, eps, 3)
	assert.Equal(t, "https://proxy.internal/v1", eps["openai"].BaseURL)
	assert.Equal(t, gateway.KindOpenAICompatible, eps["openai"].Kind)
	assert.Equal(t, "http://localhost:11434/v1", eps["local"].BaseURL)
	assert.Equal(t, gateway.KindAnthropic, eps["claude"].Kind)
	assert.True(t, eps["claude"].PromptCaching)
}

func TestToLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json"}
	got := lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputStderr, got.Output)
	assert.Equal(t, "json", got.Format)

	lc.File = "/tmp/pb.log"
	got = lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputFile, got.Output)
	assert.Equal(t, "/tmp/pb.log", got.File)
}
