// Package llm holds the vision-capable model clients the suggestion engine
// talks to. Clients are plain net/http wrappers constructed from the
// environment once at startup and passed in explicitly.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	envProvider = "LLM_PROVIDER" // "gemini" or "anthropic"
)

// Image is one screenshot payload sent alongside the prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request carries a prompt plus the images it refers to.
type Request struct {
	Prompt      string
	Images      []Image
	Temperature float32
	MaxTokens   int
}

type Response struct {
	Text string
}

type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Name() string
}

// NewClientFromEnv creates a client based on the LLM_PROVIDER env var.
// Defaults to Gemini if not specified.
func NewClientFromEnv() (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv(envProvider)))
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "gemini":
		return NewGeminiFromEnv()
	case "anthropic":
		return NewAnthropicFromEnv()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (use 'gemini' or 'anthropic')", provider)
	}
}

// NewClientWithLogger creates a client with a logger attached for tracing.
func NewClientWithLogger(logger zerolog.Logger) (Client, error) {
	client, err := NewClientFromEnv()
	if err != nil {
		return nil, err
	}
	switch c := client.(type) {
	case *geminiClient:
		c.logger = logger
	case *anthropicClient:
		c.logger = logger
	}
	return client, nil
}
