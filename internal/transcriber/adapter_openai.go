package transcriber

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIAdapter implements Adapter against any OpenAI-compatible
// /audio/transcriptions endpoint.
type OpenAIAdapter struct {
	name   string
	client *openai.Client
	config Config
}

func NewOpenAIAdapter(config Config) *OpenAIAdapter {
	return &OpenAIAdapter{
		name:   "openai-adapter",
		client: openai.NewClient(config.APIKey),
		config: config,
	}
}

// NewGroqAdapter talks to Groq's OpenAI-compatible Whisper API
func NewGroqAdapter(config Config) *OpenAIAdapter {
	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = groqBaseURL
	return &OpenAIAdapter{
		name:   "groq-transcription-adapter",
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

func (a *OpenAIAdapter) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("stat audio: %w", err)
	}
	if info.Size() == 0 {
		return &Result{}, nil
	}

	req := openai.AudioRequest{
		Model:    a.config.Model,
		FilePath: audioPath,
		Language: a.config.Language,
		Prompt:   a.config.Prompt,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	start := time.Now()
	resp, err := a.client.CreateTranscription(ctx, req)
	duration := time.Since(start)

	if err != nil {
		log.Printf("%s: API call failed after %v: %v", a.name, duration, err)
		return nil, fmt.Errorf("%s transcription: %w", strings.TrimSuffix(a.name, "-adapter"), err)
	}

	result := &Result{Text: strings.TrimSpace(resp.Text)}
	for _, s := range resp.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: seconds(s.Start),
			End:   seconds(s.End),
			Text:  strings.TrimSpace(s.Text),
		})
	}

	log.Printf("%s: transcribed %s (%d bytes) in %v: %d chars, %d segments",
		a.name, audioPath, info.Size(), duration, len(result.Text), len(result.Segments))
	return result, nil
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
