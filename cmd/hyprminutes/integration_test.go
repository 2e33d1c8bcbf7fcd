//go:build integration

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/hyprminutes/internal/config"
	"github.com/leonardotrapani/hyprminutes/internal/llm"
	"github.com/leonardotrapani/hyprminutes/internal/minutes"
	"github.com/leonardotrapani/hyprminutes/internal/models/whisper"
	"github.com/leonardotrapani/hyprminutes/internal/provider"
	"github.com/leonardotrapani/hyprminutes/internal/queue"
	"github.com/leonardotrapani/hyprminutes/internal/recording"
	"github.com/leonardotrapani/hyprminutes/internal/transcriber"
)

const (
	testSampleRate    = 16000
	testChannels      = 1
	testBitsPerSample = 16
	testTimeout       = 90 * time.Second

	sampleEnv = "HYPRMINUTES_SAMPLE_WAV"
)

var testTranscript = `Alice: okay so let's start with the release. we agreed to ship version two on friday.
Bob: i'll write the changelog and send it around by thursday.
Alice: great, and the budget review moves to next week.`

func TestTranscriptionModels(t *testing.T) {
	chunk := writeTestChunk(t)
	cfg := loadTestConfig(t)

	providerNames := provider.ListProviders()
	sort.Strings(providerNames)

	smallestLocalModel := selectSmallestLocalModel()

	for _, providerName := range providerNames {
		p := provider.GetProvider(providerName)
		if p == nil {
			continue
		}

		models := provider.ModelsOfType(p, provider.Transcription)
		sort.Slice(models, func(i, j int) bool {
			return models[i].ID < models[j].ID
		})

		for _, model := range models {
			if model.Local && model.ID != smallestLocalModel {
				continue
			}

			model := model
			providerName := providerName

			t.Run(providerName+"/"+model.ID, func(t *testing.T) {
				t.Parallel()
				runTranscriptionTest(t, cfg, providerName, model, chunk)
			})
		}
	}
}

func TestLLMModels(t *testing.T) {
	cfg := loadTestConfig(t)

	providerNames := provider.ListProviders()
	sort.Strings(providerNames)

	for _, providerName := range providerNames {
		p := provider.GetProvider(providerName)
		if p == nil {
			continue
		}

		models := provider.ModelsOfType(p, provider.LLM)
		sort.Slice(models, func(i, j int) bool {
			return models[i].ID < models[j].ID
		})

		for _, model := range models {
			model := model
			providerName := providerName

			t.Run(providerName+"/"+model.ID, func(t *testing.T) {
				t.Parallel()
				runMergeTest(t, cfg, providerName, model)
			})
		}
	}
}

func runTranscriptionTest(t *testing.T, cfg *config.Config, providerName string, model provider.Model, chunk string) {
	if model.Local {
		if _, err := exec.LookPath("whisper-cli"); err != nil {
			t.Skip("whisper-cli not found")
		}
		if !whisper.IsInstalled(model.ID) {
			t.Skipf("local model %s not installed", model.ID)
		}
	}

	apiKey := resolveTestAPIKey(cfg, providerName)
	if testProviderRequiresKey(providerName) && apiKey == "" {
		t.Skipf("missing api key for %s", providerName)
	}

	adapter, err := transcriber.NewAdapter(transcriber.Config{
		Provider: transcriptionConfigName(providerName),
		APIKey:   apiKey,
		Model:    model.ID,
	})
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	res, err := adapter.Transcribe(ctx, chunk)
	if err != nil {
		t.Fatalf("transcription failed: %v", err)
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		t.Fatal("transcription returned empty text")
	}

	t.Logf("output (%d chars, %d segments): %q", len(text), len(res.Segments), truncateTestString(text, 100))
}

// runMergeTest sends one real merge through a Synthesizer and checks the
// document was replaced with something that still looks like the minutes.
func runMergeTest(t *testing.T, cfg *config.Config, providerName string, model provider.Model) {
	apiKey := resolveTestAPIKey(cfg, providerName)
	if testProviderRequiresKey(providerName) && apiKey == "" {
		t.Skipf("missing api key for %s", providerName)
	}

	adapter, err := llm.NewAdapter(llm.Config{
		Provider:    providerName,
		APIKey:      apiKey,
		Model:       model.ID,
		Temperature: 0.2,
		MaxTokens:   2048,
	})
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}

	q, err := queue.Open(nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "minutes.md")
	synth := minutes.New(path, q, adapter, minutes.Options{
		Meeting:   "Release Sync",
		StartedAt: time.Now(),
		Timeout:   testTimeout,
	})
	seeded := synth.Document()

	res := synth.Merge(context.Background(), testTranscript, 0)
	if res.Outcome != minutes.Merged {
		t.Fatalf("merge queued: %s: %v", res.Reason, res.Err)
	}

	doc := synth.Document()
	if doc == seeded {
		t.Error("document unchanged after merge")
	}
	if !strings.Contains(doc, "Release Sync") {
		t.Errorf("meeting name lost from document:\n%s", doc)
	}

	t.Logf("output (%d chars): %q", len(doc), truncateTestString(doc, 100))
}

func transcriptionConfigName(providerName string) string {
	if providerName == provider.ProviderGroq {
		return provider.ConfigProviderGroqTranscription
	}
	return providerName
}

// writeTestChunk normalizes the sample recording to 16kHz mono and writes
// it where the pipeline would, as chunk_0000.wav
func writeTestChunk(t *testing.T) string {
	t.Helper()

	audio, err := loadTestAudio()
	if err != nil {
		t.Skipf("no sample audio: %v", err)
	}

	path := filepath.Join(t.TempDir(), recording.ChunkFileName(0))
	w, err := recording.CreateWAV(path, testSampleRate, testChannels)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(audio); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadTestAudio() ([]byte, error) {
	samplePath := os.Getenv(sampleEnv)
	if samplePath == "" {
		_, currentFile, _, ok := runtime.Caller(0)
		if !ok {
			return nil, fmt.Errorf("could not determine current file path")
		}
		projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(currentFile)))
		samplePath = filepath.Join(projectRoot, "testdata", "sample.wav")
	}

	data, err := os.ReadFile(samplePath)
	if err != nil {
		return nil, fmt.Errorf("could not read sample audio (set %s): %w", sampleEnv, err)
	}

	return parseTestWAV(data)
}

func parseTestWAV(data []byte) ([]byte, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("invalid wav: too short")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("invalid wav: missing riff/wave header")
	}

	offset := 12
	var fmtFound, dataFound bool
	var sampleRate, channels, bitsPerSample int
	var audioData []byte

	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8
		if offset+chunkSize > len(data) {
			return nil, fmt.Errorf("invalid wav: chunk overflows file")
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("invalid wav: fmt chunk too short")
			}
			audioFormat := binary.LittleEndian.Uint16(data[offset : offset+2])
			if audioFormat != 1 {
				return nil, fmt.Errorf("unsupported wav format: %d", audioFormat)
			}
			channels = int(binary.LittleEndian.Uint16(data[offset+2 : offset+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[offset+14 : offset+16]))
			fmtFound = true
		case "data":
			audioData = data[offset : offset+chunkSize]
			dataFound = true
		}

		offset += chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !fmtFound || !dataFound {
		return nil, fmt.Errorf("invalid wav: missing fmt or data chunk")
	}
	if bitsPerSample != testBitsPerSample {
		return nil, fmt.Errorf("unsupported wav bits per sample: %d", bitsPerSample)
	}

	monoData, err := downmixTestToMono(audioData, channels)
	if err != nil {
		return nil, err
	}
	resampled := resampleTestPCM16(monoData, sampleRate, testSampleRate)
	if len(resampled) == 0 {
		return nil, fmt.Errorf("invalid wav: empty audio data")
	}

	return resampled, nil
}

func downmixTestToMono(data []byte, channels int) ([]byte, error) {
	if channels == 1 {
		return data, nil
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	frameSize := 2 * channels
	if len(data)%frameSize != 0 {
		return nil, fmt.Errorf("invalid pcm data length")
	}

	frames := len(data) / frameSize
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		var sum int32
		for c := 0; c < channels; c++ {
			idx := (i*channels + c) * 2
			sum += int32(int16(binary.LittleEndian.Uint16(data[idx : idx+2])))
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(sum/int32(channels))))
	}

	return out, nil
}

func resampleTestPCM16(data []byte, inRate, outRate int) []byte {
	if inRate <= 0 || outRate <= 0 || inRate == outRate || len(data) < 2 {
		return data
	}

	numInSamples := len(data) / 2
	numOutSamples := int(math.Round(float64(numInSamples) * float64(outRate) / float64(inRate)))
	if numOutSamples <= 0 {
		return nil
	}

	out := make([]byte, numOutSamples*2)
	for i := 0; i < numOutSamples; i++ {
		srcPos := float64(i) * float64(inRate) / float64(outRate)
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s1 := sampleTestAtPCM16(data, srcIdx)
		s2 := sampleTestAtPCM16(data, srcIdx+1)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(float64(s1)*(1-frac)+float64(s2)*frac)))
	}

	return out
}

func sampleTestAtPCM16(data []byte, idx int) int16 {
	pos := idx * 2
	if pos < 0 {
		pos = 0
	}
	if pos+1 >= len(data) {
		pos = len(data) - 2
	}
	return int16(binary.LittleEndian.Uint16(data[pos : pos+2]))
}

func loadTestConfig(t *testing.T) *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return config.DefaultConfig()
		}
		t.Logf("warning: could not load config: %v", err)
		return config.DefaultConfig()
	}
	return cfg
}

func resolveTestAPIKey(cfg *config.Config, providerName string) string {
	return cfg.ResolveAPIKey(providerName)
}

func testProviderRequiresKey(providerName string) bool {
	p := provider.GetProvider(provider.BaseProviderName(providerName))
	if p == nil {
		return false
	}
	return p.RequiresAPIKey()
}

// selectSmallestLocalModel picks the first english-only model, which is the
// smallest in the catalogue
func selectSmallestLocalModel() string {
	for _, m := range whisper.ListModels() {
		if !m.Multilingual {
			return m.ID
		}
	}
	return ""
}

func truncateTestString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
