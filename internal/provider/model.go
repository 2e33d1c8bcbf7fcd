package provider

// ModelType represents the type of a model
type ModelType int

const (
	Transcription ModelType = iota
	LLM
)

func (t ModelType) String() string {
	switch t {
	case Transcription:
		return "transcription"
	case LLM:
		return "llm"
	}
	return "unknown"
}

// Model represents a model with the metadata the CLI shows
type Model struct {
	ID          string    // unique identifier (e.g., "whisper-1", "gpt-4o-mini")
	Name        string    // display name
	Description string    // short description
	Type        ModelType // transcription or LLM
	Local       bool      // runs locally (no API call)
	Endpoint    *EndpointConfig
	LocalInfo   *LocalModelInfo // nil for cloud models
}

// EndpointConfig holds HTTP endpoint configuration
type EndpointConfig struct {
	BaseURL string // e.g., "https://api.openai.com"
	Path    string // e.g., "/v1/audio/transcriptions"
}

// LocalModelInfo holds metadata for local model files
type LocalModelInfo struct {
	Filename string // e.g., "ggml-base.en.bin"
	Size     string // human readable size (e.g., "142MB")
}
