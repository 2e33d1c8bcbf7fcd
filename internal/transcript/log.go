package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Log is the append-only raw transcript for one session. It is written before
// any merge is attempted, so it is the last line of defence against losing text.
type Log struct {
	path string
	mu   sync.Mutex
}

func NewLog(path string) *Log {
	return &Log{path: path}
}

func (l *Log) Path() string {
	return l.path
}

// Append writes a chunk header followed by text. Each call opens the file in
// append mode so a crash loses at most the entry being written.
func (l *Log) Append(chunkIndex int, text string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript log: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("\n\n--- Chunk %d [%s] ---\n%s", chunkIndex, at.Format("15:04:05"), text)
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	return nil
}

// Read returns the whole log, or an empty string when nothing was written yet.
func (l *Log) Read() (string, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read transcript log: %w", err)
	}
	return string(data), nil
}
