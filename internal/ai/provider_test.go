package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProvidersRegistered(t *testing.T) {
	require.Subset(t, Providers(), []string{"gemini", "openai"})

	_, err := NewProvider("claude-ish", map[string]interface{}{"api_key": "k"})
	require.ErrorContains(t, err, "known: ")
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	_, err := NewProvider("openai", map[string]interface{}{"base_url": "http://localhost"})
	require.ErrorContains(t, err, "api_key")

	p, err := NewProvider("OpenAI", map[string]interface{}{"api_key": "k"})
	require.NoError(t, err)
	require.Equal(t, "openai/text-embedding-3-small", NewEmbedder(p, "text-embedding-3-small").ModelName())
}
