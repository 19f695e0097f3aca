package cmd

import (
	"path/filepath"

	"citeseek/internal/config"
	"citeseek/internal/embedder"
	"citeseek/internal/index"
	"citeseek/internal/llm"
	"citeseek/internal/rag"
	"citeseek/internal/store"
)

// loadConfig reads the environment configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagSources != "" {
		cfg.SourcesDir = flagSources
	}
	if flagData != "" {
		cfg.DataDir = flagData
	}
	return cfg, nil
}

func dbPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "index.db")
}

func newEmbedder(cfg *config.Config) (*embedder.OpenAIEmbedder, error) {
	return embedder.New(embedder.Config{
		APIKey:     cfg.OpenAIKey,
		Model:      cfg.EmbeddingModel,
		Dimension:  cfg.VectorDim,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.EmbedTimeout,
	})
}

func newEngine(cfg *config.Config, m *store.Manager, emb embedder.Embedder) (*rag.Engine, error) {
	chat, err := llm.New(llm.Config{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.ChatModel,
		Timeout: cfg.ChatTimeout,
	})
	if err != nil {
		return nil, err
	}
	return rag.NewEngine(m, emb, chat, rag.Options{
		TopK:          cfg.TopK,
		ContextBudget: cfg.ContextBudget,
	})
}

func newIndexer(cfg *config.Config, m *store.Manager, emb embedder.Embedder) (*index.Indexer, error) {
	return index.New(index.ManagerTarget{Manager: m}, emb, index.Config{
		SourcesDir:   cfg.SourcesDir,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		BatchSize:    cfg.EmbedBatchSize,
	})
}
