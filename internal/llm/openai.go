// Package llm wraps the OpenAI chat completions API for answer generation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Generator produces an answer from a fully assembled prompt. Generation is
// side-effecting (cost, latency) and is invoked at most once per query.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenerationError reports a failed or malformed generation. It is surfaced
// to the caller without retrying: a silent retry would double-bill the API
// and mask true unavailability.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Config holds the OpenAI chat client settings.
type Config struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// OpenAIChat calls the OpenAI chat completions endpoint, single-shot.
type OpenAIChat struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	temperature float32
	maxTokens   int
}

// New creates a chat client from the given configuration.
func New(cfg Config) (*OpenAIChat, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	// A zero timeout would hand Generate an already-expired context.
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &OpenAIChat{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Model returns the configured model name.
func (c *OpenAIChat) Model() string { return c.model }

// Generate sends the prompt and returns the assistant's response. Any
// failure, including a malformed response, comes back as *GenerationError.
func (c *OpenAIChat) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Err: errors.New("no completion choices returned")}
	}
	answer := resp.Choices[0].Message.Content
	if answer == "" {
		return "", &GenerationError{Err: errors.New("empty completion")}
	}
	return answer, nil
}
