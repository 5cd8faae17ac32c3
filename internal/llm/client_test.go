package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientFromEnvProviderSwitch(t *testing.T) {
	t.Setenv(envGeminiAPIKey, "test-key")
	t.Setenv(envAnthropicAPIKey, "test-key")

	t.Setenv(envProvider, "")
	c, err := NewClientFromEnv()
	require.NoError(t, err)
	assert.Equal(t, defaultGeminiModel, c.Name())

	t.Setenv(envProvider, "anthropic")
	c, err = NewClientFromEnv()
	require.NoError(t, err)
	assert.Equal(t, defaultModel, c.Name())

	t.Setenv(envProvider, "something-else")
	_, err = NewClientFromEnv()
	assert.Error(t, err)
}

func TestNewClientFromEnvMissingKey(t *testing.T) {
	t.Setenv(envProvider, "gemini")
	t.Setenv(envGeminiAPIKey, "")
	_, err := NewClientFromEnv()
	assert.Error(t, err)
}

func TestModelEnvOverrideStripsQuotes(t *testing.T) {
	t.Setenv(envGeminiAPIKey, "test-key")
	t.Setenv(envGeminiModel, `"gemini-2.5-pro"`)
	c, err := NewGeminiFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", c.Name())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}
