package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkarrett/codescope/internal/config"
	"github.com/mkarrett/codescope/internal/embeddings"
	"github.com/mkarrett/codescope/internal/progress"
	"github.com/mkarrett/codescope/internal/retrieve"
	"github.com/mkarrett/codescope/internal/segment"
	"github.com/mkarrett/codescope/internal/syncer"
	"github.com/mkarrett/codescope/internal/vectordb"
	"github.com/mkarrett/codescope/internal/walker"
)

// loadConfig loads and validates the config, applying the --profile
// override, with a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `codescope init` to create a config file", err)
	}
	if profile != "" {
		cfg.Profile = profile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// Shared by the sync, query, mcp, and serve commands.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel), cfg.Batch.MaxCount), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, 768, cfg.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
	}
}

// openStore opens the configured vector store backend for the profile's
// index directory.
func openStore(cfg *config.Config, repoRoot string, embedder embeddings.Embedder) (vectordb.Store, error) {
	indexDir := cfg.IndexDir(repoRoot)

	switch cfg.Store {
	case config.StoreSQLite:
		if err := os.MkdirAll(indexDir, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		return vectordb.NewSQLiteStore(filepath.Join(indexDir, "index.db"))
	default:
		if embedder == nil {
			return vectordb.NewChromemStore(filepath.Join(indexDir, "chromem"), nil)
		}
		return vectordb.NewChromemStore(filepath.Join(indexDir, "chromem"), embeddings.ToChromemFunc(embedder))
	}
}

// newSyncer wires the full pipeline for the current working directory.
func newSyncer(cfg *config.Config, repoRoot string, embedder embeddings.Embedder, store vectordb.Store, reporter progress.Reporter) *syncer.Syncer {
	return syncer.New(segment.NewRouter(), embedder, store, reporter, syncer.Config{
		RepoRoot: repoRoot,
		IndexDir: cfg.IndexDir(repoRoot),
		Walker: walker.Config{
			Include:     cfg.Include,
			Exclude:     cfg.Exclude,
			MaxFileSize: cfg.MaxFileSize,
			SkipTests:   cfg.SkipTests,
		},
		Batcher: embeddings.BatcherConfig{
			MaxBatchCount:   cfg.Batch.MaxCount,
			MaxBatchBytes:   cfg.Batch.MaxBytes,
			MaxSegmentBytes: cfg.Batch.MaxSegmentBytes,
			Concurrency:     cfg.MaxConcurrency,
		},
		Concurrency: cfg.MaxConcurrency,
	})
}

// newPipeline wires the retrieval pipeline for the current working directory.
func newPipeline(cfg *config.Config, repoRoot string, embedder embeddings.Embedder, store vectordb.Store) *retrieve.Pipeline {
	return retrieve.New(embedder, store, retrieve.Config{
		RepoRoot:       repoRoot,
		TopK:           cfg.Query.TopK,
		MaxBundleBytes: cfg.Query.MaxBundleBytes,
	})
}

// repoRoot returns the directory codescope operates on: the current
// working directory.
func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	return dir, nil
}
