package config

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// StoreType identifies a vector store backend.
type StoreType string

const (
	StoreChromem StoreType = "chromem"
	StoreSQLite  StoreType = "sqlite"
)

// Config is the top-level codescope configuration, corresponding to
// .codescope.yml at the repository root.
type Config struct {
	Profile        string       `yaml:"profile" koanf:"profile"`
	Store          StoreType    `yaml:"store" koanf:"store"`
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	EmbeddingModel string       `yaml:"embedding_model" koanf:"embedding_model"`
	OllamaURL      string       `yaml:"ollama_url" koanf:"ollama_url"`
	Include        []string     `yaml:"include" koanf:"include"`
	Exclude        []string     `yaml:"exclude" koanf:"exclude"`
	SkipTests      bool         `yaml:"skip_tests" koanf:"skip_tests"`
	MaxFileSize    int64        `yaml:"max_file_size" koanf:"max_file_size"`
	MaxConcurrency int          `yaml:"max_concurrency" koanf:"max_concurrency"`
	Batch          BatchConfig  `yaml:"batch" koanf:"batch"`
	Query          QueryConfig  `yaml:"query" koanf:"query"`
}

// BatchConfig bounds embedding requests.
type BatchConfig struct {
	MaxCount        int `yaml:"max_count" koanf:"max_count"`
	MaxBytes        int `yaml:"max_bytes" koanf:"max_bytes"`
	MaxSegmentBytes int `yaml:"max_segment_bytes" koanf:"max_segment_bytes"`
}

// QueryConfig holds retrieval settings.
type QueryConfig struct {
	TopK           int `yaml:"top_k" koanf:"top_k"`
	MaxBundleBytes int `yaml:"max_bundle_bytes" koanf:"max_bundle_bytes"`
}
