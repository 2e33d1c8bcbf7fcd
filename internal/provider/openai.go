package provider

import "strings"

// OpenAIProvider implements Provider for OpenAI services
type OpenAIProvider struct{}

func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

func (p *OpenAIProvider) RequiresAPIKey() bool {
	return true
}

func (p *OpenAIProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-")
}

func (p *OpenAIProvider) IsLocal() bool {
	return false
}

func (p *OpenAIProvider) Models() []Model {
	transcription := &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/audio/transcriptions"}
	chat := &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/chat/completions"}

	return []Model{
		{ID: "whisper-1", Name: "Whisper 1", Description: "OpenAI's production speech-to-text model, returns segments", Type: Transcription, Endpoint: transcription},
		{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "Fast and affordable, good default for minutes", Type: LLM, Endpoint: chat},
		{ID: "gpt-4o", Name: "GPT-4o", Description: "Most capable GPT-4 model", Type: LLM, Endpoint: chat},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Description: "Large context window for long meetings", Type: LLM, Endpoint: chat},
	}
}

func (p *OpenAIProvider) DefaultModel(t ModelType) string {
	switch t {
	case Transcription:
		return "whisper-1"
	case LLM:
		return "gpt-4o-mini"
	}
	return ""
}
