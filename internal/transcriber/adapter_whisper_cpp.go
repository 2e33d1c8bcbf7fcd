package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// WhisperCppAdapter runs the local whisper-cli binary on the chunk file.
type WhisperCppAdapter struct {
	modelPath string
	language  string
	threads   int
}

// NewWhisperCppAdapter creates a new whisper-cpp adapter
// modelPath: full path to the ggml model file
// lang: whisper-cpp language code, empty for auto
// threads: number of CPU threads (0 for auto)
func NewWhisperCppAdapter(modelPath, lang string, threads int) *WhisperCppAdapter {
	return &WhisperCppAdapter{
		modelPath: modelPath,
		language:  lang,
		threads:   threads,
	}
}

func (a *WhisperCppAdapter) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(a.modelPath); os.IsNotExist(err) {
		return nil, NewFatalTranscriptionError(fmt.Errorf("model file not found: %s", a.modelPath))
	}

	whisperPath, err := exec.LookPath("whisper-cli")
	if err != nil {
		return nil, NewFatalTranscriptionError(fmt.Errorf("whisper-cli not found: install whisper.cpp first"))
	}

	lang := a.language
	if lang == "" {
		lang = "auto"
	}

	// timestamps stay on: the segment lines are what we parse
	args := []string{
		"-m", a.modelPath,
		"-l", lang,
		"-np", // no progress
		"-f", audioPath,
	}
	if a.threads > 0 {
		args = append(args, "-t", strconv.Itoa(a.threads))
	}

	cmd := exec.CommandContext(ctx, whisperPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("whisper-cpp: command failed after %v: %v\nstderr: %s", duration, err, truncate(stderr.String(), 200))
		return nil, fmt.Errorf("whisper-cli failed: %w", err)
	}

	result := parseWhisperOutput(stdout.String())
	log.Printf("whisper-cpp: transcribed %s in %v: %d chars", audioPath, duration, len(result.Text))
	return result, nil
}

// [00:00:00.000 --> 00:00:02.980]   Test, test, one, two, three.
var segmentLine = regexp.MustCompile(`^\[(\d+:\d{2}:\d{2}[.,]\d{3}) --> (\d+:\d{2}:\d{2}[.,]\d{3})\]\s*(.*)$`)

func parseWhisperOutput(out string) *Result {
	result := &Result{}
	var texts []string
	for _, line := range strings.Split(out, "\n") {
		m := segmentLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[3])
		if text == "" {
			continue
		}
		start, _ := parseTimestamp(m[1])
		end, _ := parseTimestamp(m[2])
		result.Segments = append(result.Segments, Segment{Start: start, End: end, Text: text})
		texts = append(texts, text)
	}
	result.Text = strings.Join(texts, " ")
	return result
}

// parseTimestamp reads hh:mm:ss.mmm
func parseTimestamp(ts string) (time.Duration, error) {
	ts = strings.Replace(ts, ",", ".", 1)
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	s, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s*float64(time.Second)), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
