package transcript

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAppendWritesHeaders(t *testing.T) {
	l := NewLog(filepath.Join(t.TempDir(), "transcripts", "s_raw.txt"))
	at := time.Date(2026, 1, 1, 14, 5, 9, 0, time.Local)

	if err := l.Append(0, "hello there", at); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(1, "second", at.Add(time.Minute)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := l.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := "\n\n--- Chunk 0 [14:05:09] ---\nhello there\n\n--- Chunk 1 [14:06:09] ---\nsecond"
	if got != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestReadBeforeAppend(t *testing.T) {
	l := NewLog(filepath.Join(t.TempDir(), "none.txt"))
	got, err := l.Read()
	if err != nil || got != "" {
		t.Errorf("Read() = %q, %v", got, err)
	}
}

func TestConcurrentAppendsKeepEntriesWhole(t *testing.T) {
	l := NewLog(filepath.Join(t.TempDir(), "c.txt"))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Append(i, fmt.Sprintf("text-%d", i), time.Now())
		}(i)
	}
	wg.Wait()

	got, _ := l.Read()
	for i := 0; i < 20; i++ {
		if !strings.Contains(got, fmt.Sprintf("--- Chunk %d [", i)) || !strings.Contains(got, fmt.Sprintf("text-%d", i)) {
			t.Errorf("entry %d missing", i)
		}
	}
}

func TestAppendFailureIsReturned(t *testing.T) {
	dir := t.TempDir()
	// a directory where the file should be makes the open fail
	l := NewLog(dir)
	if err := l.Append(0, "x", time.Now()); err == nil {
		t.Error("expected error appending to a directory path")
	}
}
