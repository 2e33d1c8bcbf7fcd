package provider

import "strings"

// GroqProvider implements Provider for Groq services
type GroqProvider struct{}

func (p *GroqProvider) Name() string {
	return ProviderGroq
}

func (p *GroqProvider) RequiresAPIKey() bool {
	return true
}

func (p *GroqProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "gsk_")
}

func (p *GroqProvider) IsLocal() bool {
	return false
}

func (p *GroqProvider) Models() []Model {
	transcription := &EndpointConfig{BaseURL: "https://api.groq.com", Path: "/openai/v1/audio/transcriptions"}
	chat := &EndpointConfig{BaseURL: "https://api.groq.com", Path: "/openai/v1/chat/completions"}

	return []Model{
		{ID: "whisper-large-v3", Name: "Whisper Large V3", Description: "Best accuracy on Groq", Type: Transcription, Endpoint: transcription},
		{ID: "whisper-large-v3-turbo", Name: "Whisper Large V3 Turbo", Description: "Fast, near-best accuracy", Type: Transcription, Endpoint: transcription},
		{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B", Description: "Strong general model", Type: LLM, Endpoint: chat},
		{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B", Description: "Very fast, lower quality", Type: LLM, Endpoint: chat},
	}
}

func (p *GroqProvider) DefaultModel(t ModelType) string {
	switch t {
	case Transcription:
		return "whisper-large-v3-turbo"
	case LLM:
		return "llama-3.3-70b-versatile"
	}
	return ""
}
