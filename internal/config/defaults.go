package config

// embeddingPresets maps each provider to its default embedding model.
var embeddingPresets = map[ProviderType]string{
	ProviderOpenAI: "text-embedding-3-small",
	ProviderOllama: "nomic-embed-text",
}

// DefaultExcludes are glob patterns excluded from indexing by default.
var DefaultExcludes = []string{
	"vendor/**",
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"*.min.js",
	"*.min.css",
	"*.lock",
	"go.sum",
	"package-lock.json",
	"yarn.lock",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Profile:        "default",
		Store:          StoreChromem,
		Provider:       ProviderOpenAI,
		EmbeddingModel: embeddingPresets[ProviderOpenAI],
		OllamaURL:      "http://localhost:11434",
		Include:        []string{"**"},
		Exclude:        DefaultExcludes,
		SkipTests:      false,
		MaxConcurrency: 4,
		Batch: BatchConfig{
			MaxCount:        100,
			MaxBytes:        256 << 10,
			MaxSegmentBytes: 64 << 10,
		},
		Query: QueryConfig{
			TopK:           10,
			MaxBundleBytes: 64 << 10,
		},
	}
}

// DefaultModel returns the default embedding model for a provider,
// falling back to the OpenAI preset for unknown providers.
func DefaultModel(provider ProviderType) string {
	if model, ok := embeddingPresets[provider]; ok {
		return model
	}
	return embeddingPresets[ProviderOpenAI]
}
