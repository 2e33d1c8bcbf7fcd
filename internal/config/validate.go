package config

import (
	"fmt"
	"time"

	spoken "github.com/leonardotrapani/hyprminutes/internal/language"
	"github.com/leonardotrapani/hyprminutes/internal/models/whisper"
	"github.com/leonardotrapani/hyprminutes/internal/provider"
	"golang.org/x/text/language"
)

func (c *Config) Validate() error {
	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", c.Recording.Channels)
	}
	if c.Recording.BufferSize <= 0 {
		return fmt.Errorf("invalid recording.buffer_size: %d", c.Recording.BufferSize)
	}
	if c.Recording.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid recording.channel_buffer_size: %d", c.Recording.ChannelBufferSize)
	}
	if c.Recording.Format != "s16" {
		return fmt.Errorf("invalid recording.format: %q (only s16 is supported)", c.Recording.Format)
	}
	if c.Recording.ChunkDuration < 10*time.Second {
		return fmt.Errorf("invalid recording.chunk_duration: %v (minimum 10s)", c.Recording.ChunkDuration)
	}
	if c.Recording.MinChunkBytes < 0 {
		return fmt.Errorf("invalid recording.min_chunk_bytes: %d", c.Recording.MinChunkBytes)
	}

	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateSummarization(); err != nil {
		return err
	}

	if c.Session.FinalizeTimeout <= 0 {
		return fmt.Errorf("invalid session.finalize_timeout: %v", c.Session.FinalizeTimeout)
	}

	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen required when metrics.enabled = true")
	}

	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if t.Provider == "" {
		return fmt.Errorf("invalid transcription.provider: empty")
	}
	if t.Model == "" {
		return fmt.Errorf("invalid transcription.model: empty")
	}
	if t.Timeout <= 0 {
		return fmt.Errorf("invalid transcription.timeout: %v", t.Timeout)
	}
	if t.Language != "" && !IsValidLanguageCode(t.Language) {
		return fmt.Errorf("invalid transcription.language: %s (use empty string for auto-detect or ISO-639-1 codes like 'en', 'es', 'fr')", t.Language)
	}
	if !spoken.IsSupported(t.Language) {
		return fmt.Errorf("unsupported transcription.language: %s is not a language whisper transcribes", t.Language)
	}

	switch t.Provider {
	case provider.ConfigProviderOpenAI, provider.ConfigProviderGroqTranscription:
		if c.ResolveAPIKey(t.Provider) == "" {
			base := provider.BaseProviderName(t.Provider)
			return fmt.Errorf("%s API key required: not found in config (providers.%s.api_key) or environment variable (%s)",
				base, base, provider.EnvVarForProvider(t.Provider))
		}
		p := provider.GetProvider(provider.BaseProviderName(t.Provider))
		if m := provider.FindModel(p, t.Model); m == nil || m.Type != provider.Transcription {
			return fmt.Errorf("invalid model for %s: %s", t.Provider, t.Model)
		}

	case provider.ConfigProviderWhisperCpp:
		info := whisper.GetModel(t.Model)
		if info == nil {
			return fmt.Errorf("invalid model for whisper-cpp: %s", t.Model)
		}
		if !info.Multilingual && t.Language != "" && t.Language != "en" {
			return fmt.Errorf("whisper-cpp model %s is English-only, cannot transcribe %q", t.Model, t.Language)
		}

	default:
		return fmt.Errorf("unsupported transcription.provider: %s (must be openai, groq-transcription, or whisper-cpp)", t.Provider)
	}
	return nil
}

func (c *Config) validateSummarization() error {
	s := c.Summarization
	if s.Timeout <= 0 {
		return fmt.Errorf("invalid summarization.timeout: %v", s.Timeout)
	}
	if !s.Enabled {
		return nil
	}

	if s.Provider == "" {
		return fmt.Errorf("summarization.provider required when summarization.enabled = true")
	}
	if s.Model == "" {
		return fmt.Errorf("summarization.model required when summarization.enabled = true")
	}
	validProviders := map[string]bool{provider.ProviderOpenAI: true, provider.ProviderGroq: true}
	if !validProviders[s.Provider] {
		return fmt.Errorf("invalid summarization.provider: %s (must be openai or groq)", s.Provider)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("invalid summarization.temperature: %v (must be between 0 and 2)", s.Temperature)
	}
	if s.MaxTokens < 0 {
		return fmt.Errorf("invalid summarization.max_tokens: %d", s.MaxTokens)
	}
	// a missing key is not an error: transcripts are queued until one is configured
	return nil
}

// IsValidLanguageCode accepts two-letter ISO 639-1 codes known to CLDR.
func IsValidLanguageCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	base, err := language.ParseBase(code)
	if err != nil {
		return false
	}
	return base.String() == code
}
