package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// defaultKeyEnv maps each built-in provider to the variable holding its key.
//
//nolint:gochecknoglobals // Static lookup table.
var defaultKeyEnv = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"groq":       "GROQ_API_KEY",
	"mistral":    "MISTRAL_API_KEY",
	"deepseek":   "DEEPSEEK_API_KEY",
	"xai":        "XAI_API_KEY",
	"together":   "TOGETHER_API_KEY",
	"google":     "GEMINI_API_KEY",
}

// Credentials holds provider API keys. It implements both
// engine.CredentialChecker and gateway.KeySource.
type Credentials struct {
	keys map[string]string
}

// NewCredentials returns credentials from an explicit provider->key map.
func NewCredentials(keys map[string]string) *Credentials {
	c := &Credentials{keys: make(map[string]string, len(keys))}
	for p, k := range keys {
		if k != "" {
			c.keys[strings.ToLower(p)] = k
		}
	}
	return c
}

// KeyEnvVars returns the provider->variable table, with api_key_env
// overrides and extra providers from the configuration applied.
func (c *Config) KeyEnvVars() map[string]string {
	vars := maps.Clone(defaultKeyEnv)
	for name, p := range c.Providers {
		name = strings.ToLower(name)
		switch {
		case p.APIKeyEnv != "":
			vars[name] = p.APIKeyEnv
		case vars[name] == "":
			vars[name] = strings.ToUpper(name) + "_API_KEY"
		}
	}
	return vars
}

// LoadCredentials resolves provider keys from the process environment and
// the given .env files. The environment wins over file values, and
// missing files are skipped.
func LoadCredentials(envVars map[string]string, envFiles ...string) (*Credentials, error) {
	fileValues := make(map[string]string)
	for _, f := range envFiles {
		values, err := godotenv.Read(f)
		if err != nil {
			var pathErr *os.PathError
			if errors.As(err, &pathErr) {
				continue
			}
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
		for k, v := range values {
			if _, seen := fileValues[k]; !seen {
				fileValues[k] = v
			}
		}
	}

	keys := make(map[string]string, len(envVars))
	for provider, name := range envVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			keys[provider] = v
			continue
		}
		if v := strings.TrimSpace(fileValues[name]); v != "" {
			keys[provider] = v
		}
	}
	return NewCredentials(keys), nil
}

// APIKey implements gateway.KeySource.
func (c *Credentials) APIKey(provider string) (string, bool) {
	if c == nil {
		return "", false
	}
	k, ok := c.keys[strings.ToLower(provider)]
	return k, ok
}

// HasCredential implements engine.CredentialChecker.
func (c *Credentials) HasCredential(provider string) bool {
	_, ok := c.APIKey(provider)
	return ok
}

// Providers lists the providers with a key, sorted.
func (c *Credentials) Providers() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.keys))
}
