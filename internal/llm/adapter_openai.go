package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ChatAdapter implements Adapter on top of an OpenAI-compatible chat
// completions endpoint. OpenAI and Groq differ only in base URL and default model.
type ChatAdapter struct {
	name         string
	defaultModel string
	client       *openai.Client
	config       Config
}

// NewOpenAIAdapter creates a new OpenAI LLM adapter
func NewOpenAIAdapter(cfg Config) *ChatAdapter {
	return &ChatAdapter{
		name:         "openai",
		defaultModel: "gpt-4o-mini",
		client:       openai.NewClient(cfg.APIKey),
		config:       cfg,
	}
}

// NewGroqAdapter creates a new Groq LLM adapter
func NewGroqAdapter(cfg Config) *ChatAdapter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = "https://api.groq.com/openai/v1"
	return &ChatAdapter{
		name:         "groq",
		defaultModel: "llama-3.3-70b-versatile",
		client:       openai.NewClientWithConfig(clientConfig),
		config:       cfg,
	}
}

func (a *ChatAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	model := a.config.Model
	if model == "" {
		model = a.defaultModel
	}

	temperature := a.config.Temperature
	if temperature == 0 {
		temperature = 0.2 // minutes should stay close to what was said
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   a.config.MaxTokens,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		log.Printf("%s-llm-adapter: API call failed after %v: %v", a.name, duration, err)
		return "", fmt.Errorf("%s chat completion: %w", a.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s chat completion: %w", a.name, ErrEmptyResponse)
	}

	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	if result == "" {
		return "", fmt.Errorf("%s chat completion: %w", a.name, ErrEmptyResponse)
	}

	log.Printf("%s-llm-adapter: completed in %v: %d prompt chars -> %d chars (%d tokens)",
		a.name, duration, len(prompt), len(result), resp.Usage.TotalTokens)
	return result, nil
}
