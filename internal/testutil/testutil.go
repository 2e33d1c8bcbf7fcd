package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leonardotrapani/hyprminutes/internal/config"
	"github.com/leonardotrapani/hyprminutes/internal/recording"
	"github.com/leonardotrapani/hyprminutes/internal/transcriber"
)

// TestConfig returns a valid configuration rooted in a temp directory
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	c := config.DefaultConfig()
	c.Storage.DataDir = t.TempDir()
	c.Providers = map[string]config.ProviderConfig{
		"openai": {APIKey: "sk-test"},
	}
	c.Notifications.Type = "none"
	c.Session.FinalizeTimeout = 5 * time.Second
	c.Transcription.Threads = 1
	return c
}

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}
	return configPath
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// CaptureOutput captures stdout for testing
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	out, _ := io.ReadAll(r)
	return string(out)
}

// WriteChunk writes a small placeholder audio file and returns its path
func WriteChunk(t *testing.T, dir string, index int) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, recording.ChunkFileName(index))
	if err := os.WriteFile(path, []byte(fmt.Sprintf("audio %d", index)), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// MockTranscriber implements transcriber.Adapter. By default it returns the
// text registered for the file name, or "" when none was registered.
type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string) (*transcriber.Result, error)

	mu    sync.Mutex
	texts map[string]string
	errs  map[string]error
	calls []string
}

func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{
		texts: make(map[string]string),
		errs:  make(map[string]error),
	}
}

// SetText makes the file named base transcribe to text
func (m *MockTranscriber) SetText(base, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[base] = text
}

// SetError makes the file named base fail with err
func (m *MockTranscriber) SetError(base string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[base] = err
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (*transcriber.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, audioPath)
	base := filepath.Base(audioPath)
	text, err := m.texts[base], m.errs[base]
	fn := m.TranscribeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, audioPath)
	}
	if err != nil {
		return nil, err
	}
	return &transcriber.Result{Text: text}, nil
}

func (m *MockTranscriber) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockLLM implements llm.Adapter. Each call records its prompt; the reply is
// produced by CompleteFunc, or Err, or Response in that order of precedence.
type MockLLM struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
	Response     string
	Err          error
	Delay        func() time.Duration
	Detector     *ExclusivityDetector

	mu      sync.Mutex
	prompts []string
}

func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

func (m *MockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if m.Detector != nil {
		m.Detector.Enter()
		defer m.Detector.Exit()
	}

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn, resp, err, delay := m.CompleteFunc, m.Response, m.Err, m.Delay
	m.mu.Unlock()

	if delay != nil {
		select {
		case <-time.After(delay()):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if fn != nil {
		return fn(ctx, prompt)
	}
	if err != nil {
		return "", err
	}
	return resp, nil
}

// SetErr changes the failure returned by later calls
func (m *MockLLM) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

func (m *MockLLM) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// ExclusivityDetector counts how often two callers were inside the same
// section at once.
type ExclusivityDetector struct {
	active   atomic.Int32
	maxSeen  atomic.Int32
	overlaps atomic.Int32
}

func (d *ExclusivityDetector) Enter() {
	n := d.active.Add(1)
	if n > 1 {
		d.overlaps.Add(1)
	}
	for {
		max := d.maxSeen.Load()
		if n <= max || d.maxSeen.CompareAndSwap(max, n) {
			break
		}
	}
}

func (d *ExclusivityDetector) Exit() {
	d.active.Add(-1)
}

func (d *ExclusivityDetector) Overlaps() int {
	return int(d.overlaps.Load())
}

func (d *ExclusivityDetector) MaxConcurrent() int {
	return int(d.maxSeen.Load())
}

// NotifierEvent is one call recorded by RecordingNotifier
type NotifierEvent struct {
	Kind   string
	Index  int
	Detail string
}

// RecordingNotifier implements notify.Notifier and keeps every call
type RecordingNotifier struct {
	mu     sync.Mutex
	events []NotifierEvent
}

func (n *RecordingNotifier) add(e NotifierEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *RecordingNotifier) RecordingStarted(meeting string) {
	n.add(NotifierEvent{Kind: "started", Detail: meeting})
}

func (n *RecordingNotifier) RecordingEnded(meeting string) {
	n.add(NotifierEvent{Kind: "ended", Detail: meeting})
}

func (n *RecordingNotifier) ChunkQueued(index int, reason string) {
	n.add(NotifierEvent{Kind: "queued", Index: index, Detail: reason})
}

func (n *RecordingNotifier) QueueDrained(count int) {
	n.add(NotifierEvent{Kind: "drained", Index: count})
}

func (n *RecordingNotifier) Error(msg string) {
	n.add(NotifierEvent{Kind: "error", Detail: msg})
}

func (n *RecordingNotifier) Notify(title, message string) {
	n.add(NotifierEvent{Kind: "notify", Detail: title + ": " + message})
}

func (n *RecordingNotifier) Events() []NotifierEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]NotifierEvent(nil), n.events...)
}

// Count returns how many events of kind were recorded
func (n *RecordingNotifier) Count(kind string) int {
	c := 0
	for _, e := range n.Events() {
		if e.Kind == kind {
			c++
		}
	}
	return c
}

// MockFrameSource implements recording.FrameSource for testing
type MockFrameSource struct {
	Frames     []recording.AudioFrame
	StartError error

	mu     sync.Mutex
	stopCh chan struct{}
}

func (m *MockFrameSource) Start(ctx context.Context) (<-chan recording.AudioFrame, <-chan error, error) {
	if m.StartError != nil {
		return nil, nil, m.StartError
	}

	m.mu.Lock()
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	frameCh := make(chan recording.AudioFrame, len(m.Frames)+1)
	errCh := make(chan error, 1)

	go func() {
		defer close(frameCh)
		defer close(errCh)

		for _, frame := range m.Frames {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case frameCh <- frame:
			}
		}

		// keep channel open until stopped
		select {
		case <-ctx.Done():
		case <-stopCh:
		}
	}()

	return frameCh, errCh, nil
}

func (m *MockFrameSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
	return nil
}
