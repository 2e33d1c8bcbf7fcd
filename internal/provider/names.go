package provider

// Provider name constants for config and registry
const (
	ProviderOpenAI     = "openai"
	ProviderGroq       = "groq"
	ProviderWhisperCpp = "whisper-cpp"
)

// Config provider names (used in config file transcription.provider)
const (
	ConfigProviderOpenAI            = "openai"
	ConfigProviderGroqTranscription = "groq-transcription"
	ConfigProviderWhisperCpp        = "whisper-cpp"
)

// Environment variable names for API keys
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGroqKey   = "GROQ_API_KEY"
)

// BaseProviderName maps config provider names to registry provider names
// e.g. "groq-transcription" -> "groq"
func BaseProviderName(configProvider string) string {
	switch configProvider {
	case ConfigProviderGroqTranscription:
		return ProviderGroq
	default:
		return configProvider
	}
}

// EnvVarForProvider returns the environment variable name for a provider's API key
func EnvVarForProvider(provider string) string {
	switch BaseProviderName(provider) {
	case ProviderOpenAI:
		return EnvOpenAIKey
	case ProviderGroq:
		return EnvGroqKey
	default:
		return ""
	}
}
