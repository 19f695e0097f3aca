package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{Model: "gpt-4o-mini"})
	assert.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	c, err := New(Config{APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	assert.Equal(t, float32(0.3), c.temperature)
	assert.Equal(t, 1000, c.maxTokens)
	assert.Equal(t, 2*time.Minute, c.timeout)
}

func TestNewKeepsExplicitSettings(t *testing.T) {
	c, err := New(Config{
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		Timeout:     30 * time.Second,
		Temperature: 0.7,
		MaxTokens:   256,
	})
	require.NoError(t, err)

	assert.Equal(t, float32(0.7), c.temperature)
	assert.Equal(t, 256, c.maxTokens)
	assert.Equal(t, 30*time.Second, c.timeout)
}
