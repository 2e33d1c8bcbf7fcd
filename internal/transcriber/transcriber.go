package transcriber

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leonardotrapani/hyprminutes/internal/models/whisper"
	"github.com/leonardotrapani/hyprminutes/internal/provider"
)

// Segment is a piece of text with offsets relative to the start of its chunk.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Result is what a backend returns for one audio chunk.
type Result struct {
	Text     string
	Segments []Segment
}

// Timestamped renders the segments re-stamped to wall-clock time, one per
// line. Falls back to the plain text when the backend gave no segments.
func (r *Result) Timestamped(chunkStart time.Time) string {
	if r == nil {
		return ""
	}
	if len(r.Segments) == 0 || chunkStart.IsZero() {
		return r.Text
	}
	lines := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", chunkStart.Add(s.Start).Format("15:04:05"), text))
	}
	if len(lines) == 0 {
		return r.Text
	}
	return strings.Join(lines, "\n")
}

// Adapter is the transcription port: one audio file in, text and segments out.
type Adapter interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// Config for the transcription backend
type Config struct {
	Provider string
	APIKey   string
	Language string
	Model    string
	Threads  int    // whisper-cpp only, 0 = let whisper-cli decide
	Prompt   string // vocabulary hint passed to the backend
}

// NewAdapter creates the adapter for cfg.Provider
func NewAdapter(cfg Config) (Adapter, error) {
	switch cfg.Provider {
	case provider.ConfigProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAIAdapter(cfg), nil

	case provider.ConfigProviderGroqTranscription:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Groq API key required")
		}
		return NewGroqAdapter(cfg), nil

	case provider.ConfigProviderWhisperCpp:
		modelPath := whisper.GetModelPath(cfg.Model)
		if modelPath == "" {
			return nil, fmt.Errorf("unknown whisper model: %s", cfg.Model)
		}
		return NewWhisperCppAdapter(modelPath, cfg.Language, cfg.Threads), nil

	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", cfg.Provider)
	}
}
