package config

import (
	"os"

	"github.com/leonardotrapani/hyprminutes/internal/llm"
	"github.com/leonardotrapani/hyprminutes/internal/provider"
	"github.com/leonardotrapani/hyprminutes/internal/recording"
	"github.com/leonardotrapani/hyprminutes/internal/transcriber"
)

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:        c.Recording.SampleRate,
		Channels:          c.Recording.Channels,
		Format:            c.Recording.Format,
		BufferSize:        c.Recording.BufferSize,
		Device:            c.Recording.Device,
		ChannelBufferSize: c.Recording.ChannelBufferSize,
		ChunkDuration:     c.Recording.ChunkDuration,
		MinChunkBytes:     c.Recording.MinChunkBytes,
	}
}

func (c *Config) ToTranscriberConfig() transcriber.Config {
	return transcriber.Config{
		Provider: c.Transcription.Provider,
		APIKey:   c.ResolveAPIKey(c.Transcription.Provider),
		Language: c.Transcription.Language,
		Model:    c.Transcription.Model,
		Threads:  c.Transcription.Threads,
		Prompt:   c.Transcription.Prompt,
	}
}

// ToLLMConfig returns the summarization adapter configuration
func (c *Config) ToLLMConfig() llm.Config {
	return llm.Config{
		Provider:    c.Summarization.Provider,
		APIKey:      c.ResolveAPIKey(c.Summarization.Provider),
		Model:       c.Summarization.Model,
		Temperature: c.Summarization.Temperature,
		MaxTokens:   c.Summarization.MaxTokens,
	}
}

// IsSummarizationEnabled reports whether a summarization client can be built
func (c *Config) IsSummarizationEnabled() bool {
	return c.Summarization.Enabled && c.Summarization.Provider != "" &&
		c.ResolveAPIKey(c.Summarization.Provider) != ""
}

// ResolveAPIKey returns the API key for a provider, from [providers.<name>]
// first and the provider's environment variable second.
func (c *Config) ResolveAPIKey(providerName string) string {
	baseName := provider.BaseProviderName(providerName)

	if c.Providers != nil {
		if pc, ok := c.Providers[baseName]; ok && pc.APIKey != "" {
			return pc.APIKey
		}
	}

	if envVar := provider.EnvVarForProvider(providerName); envVar != "" {
		return os.Getenv(envVar)
	}
	return ""
}
