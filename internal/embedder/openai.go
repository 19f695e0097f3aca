// Package embedder wraps the OpenAI embeddings API with batching, bounded
// retry, and dimension verification.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"citeseek/internal/backoff"
)

// Embedder converts text into fixed-dimension vectors. The batched form
// returns one vector per input in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Config holds the OpenAI embedder settings.
type Config struct {
	APIKey     string
	Model      string
	Dimension  int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint. Transient failures
// (rate limits, 5xx, network timeouts) are retried with exponential backoff
// up to the configured ceiling; anything else is terminal.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dim        int
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
}

// New creates an embedder from the given configuration.
func New(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.Dimension)
	}
	return &OpenAIEmbedder{
		client:     openai.NewClient(cfg.APIKey),
		model:      openai.EmbeddingModel(cfg.Model),
		dim:        cfg.Dimension,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
	}, nil
}

// Model returns the configured model name.
func (e *OpenAIEmbedder) Model() string { return string(e.model) }

// Dimension returns the expected vector size.
func (e *OpenAIEmbedder) Dimension() int { return e.dim }

// EmbedBatch embeds a batch of texts. The returned slice has the same
// length and order as the input, and every vector is verified against the
// configured dimension before it is handed to the store.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff.Delay(e.retryDelay, attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		resp, err := e.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: e.model,
		})
		cancel()

		if err != nil {
			if !retryable(err) {
				return nil, fmt.Errorf("embed batch: %w", err)
			}
			lastErr = err
			continue
		}

		if len(resp.Data) != len(texts) {
			lastErr = fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
			continue
		}

		vectors := make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			if len(d.Embedding) != e.dim {
				return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(d.Embedding), e.dim)
			}
			vectors[i] = d.Embedding
		}
		return vectors, nil
	}

	return nil, fmt.Errorf("embed batch failed after %d attempts: %w", e.maxRetries+1, lastErr)
}

// EmbedQuery embeds a single query string.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// retryable classifies an embedding failure. Rate limits, server errors,
// and network timeouts are worth another attempt; auth and request errors
// are not.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
