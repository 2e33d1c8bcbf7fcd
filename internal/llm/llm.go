package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the model answered with no text. A blank
// answer must never replace the minutes document.
var ErrEmptyResponse = errors.New("empty response")

// Adapter is the summarization port: a full prompt in, the revised document out.
type Adapter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds LLM adapter configuration
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewAdapter creates an LLM adapter based on the provider
func NewAdapter(cfg Config) (Adapter, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAIAdapter(cfg), nil
	case "groq":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Groq API key required")
		}
		return NewGroqAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
