package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all settings for the citeseek service, loaded from the
// environment. A .env file is read by the entry points via godotenv before
// Load is called.
type Config struct {
	// OpenAI settings
	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string
	VectorDim      int
	MaxRetries     int
	RetryDelay     time.Duration
	EmbedTimeout   time.Duration
	ChatTimeout    time.Duration

	// Ingestion settings
	SourcesDir     string
	DataDir        string
	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int

	// Query settings
	TopK          int
	ContextBudget int

	// HTTP settings
	Addr string
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		ChatModel:      getEnv("CITESEEK_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("CITESEEK_EMBEDDING_MODEL", "text-embedding-3-small"),
		VectorDim:      getEnvInt("CITESEEK_VECTOR_DIM", 1536),
		MaxRetries:     getEnvInt("CITESEEK_MAX_RETRIES", 3),
		RetryDelay:     getEnvDuration("CITESEEK_RETRY_DELAY", 2*time.Second),
		EmbedTimeout:   getEnvDuration("CITESEEK_EMBED_TIMEOUT", 30*time.Second),
		ChatTimeout:    getEnvDuration("CITESEEK_CHAT_TIMEOUT", 2*time.Minute),
		SourcesDir:     getEnv("CITESEEK_SOURCES_DIR", "./pdf_sources"),
		DataDir:        getEnv("CITESEEK_DATA_DIR", "./data"),
		ChunkSize:      getEnvInt("CITESEEK_CHUNK_SIZE", 400),
		ChunkOverlap:   getEnvInt("CITESEEK_CHUNK_OVERLAP", 100),
		EmbedBatchSize: getEnvInt("CITESEEK_EMBED_BATCH", 32),
		TopK:           getEnvInt("CITESEEK_TOP_K", 5),
		ContextBudget:  getEnvInt("CITESEEK_CONTEXT_BUDGET", 3000),
		Addr:           ":" + getEnv("PORT", "8080"),
	}
	return cfg, cfg.Validate()
}

// Validate checks settings that would otherwise fail deep inside the
// pipeline with a worse error message.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CITESEEK_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CITESEEK_CHUNK_OVERLAP must satisfy 0 <= overlap < chunk size, got %d", c.ChunkOverlap)
	}
	if c.VectorDim <= 0 {
		return fmt.Errorf("CITESEEK_VECTOR_DIM must be positive, got %d", c.VectorDim)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("CITESEEK_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("CITESEEK_TOP_K must be positive, got %d", c.TopK)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("CITESEEK_EMBED_BATCH must be positive, got %d", c.EmbedBatchSize)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("CITESEEK_RETRY_DELAY must be positive, got %s", c.RetryDelay)
	}
	if c.EmbedTimeout <= 0 {
		return fmt.Errorf("CITESEEK_EMBED_TIMEOUT must be positive, got %s", c.EmbedTimeout)
	}
	if c.ChatTimeout <= 0 {
		return fmt.Errorf("CITESEEK_CHAT_TIMEOUT must be positive, got %s", c.ChatTimeout)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
