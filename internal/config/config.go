// Package config loads, validates, and persists the .codescope.yml
// configuration file, with CODESCOPE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// FileName is the configuration file name at the repository root.
const FileName = ".codescope.yml"

// IndexRoot is the directory holding per-profile index state.
const IndexRoot = ".codescope"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CODESCOPE_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: CODESCOPE_PROVIDER -> provider, etc.
	if err := k.Load(env.Provider("CODESCOPE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CODESCOPE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized embedding provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
}

// validStores is the set of recognized store backend values.
var validStores = map[StoreType]bool{
	StoreChromem: true,
	StoreSQLite:  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Profile == "" {
		return fmt.Errorf("profile is required")
	}
	if strings.ContainsAny(c.Profile, "/\\") {
		return fmt.Errorf("invalid profile %q: must not contain path separators", c.Profile)
	}

	if !validStores[c.Store] {
		return fmt.Errorf("invalid store %q: must be one of chromem, sqlite", c.Store)
	}

	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of openai, ollama", c.Provider)
	}

	if c.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required")
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}
	if c.Batch.MaxCount < 0 || c.Batch.MaxBytes < 0 || c.Batch.MaxSegmentBytes < 0 {
		return fmt.Errorf("batch limits must be non-negative")
	}
	if c.Query.TopK < 0 {
		return fmt.Errorf("query top_k must be non-negative")
	}

	return nil
}

// IndexDir returns the index directory for this configuration's profile
// under the given repository root.
func (c *Config) IndexDir(repoRoot string) string {
	return filepath.Join(repoRoot, IndexRoot, c.Profile)
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
