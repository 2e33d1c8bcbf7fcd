package recording

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.SampleRate != 16000 {
		t.Errorf("default sample rate should be 16000, got %d", config.SampleRate)
	}
	if config.Channels != 1 {
		t.Errorf("default channels should be 1, got %d", config.Channels)
	}
	if config.Format != "s16" {
		t.Errorf("default format should be s16, got %s", config.Format)
	}
	if config.ChunkDuration != 5*time.Minute {
		t.Errorf("default chunk duration should be 5m, got %v", config.ChunkDuration)
	}
	if config.BytesPerSecond() != 32000 {
		t.Errorf("BytesPerSecond() = %d, want 32000", config.BytesPerSecond())
	}
}

func TestNewRecorder(t *testing.T) {
	recorder := NewRecorder(DefaultConfig())
	if recorder.IsRecording() {
		t.Error("recorder should not be recording initially")
	}
	if err := recorder.Stop(); err != nil {
		t.Errorf("Stop() on idle recorder = %v", err)
	}
}

func TestRecorder_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, true},
		{"zero channels", func(c *Config) { c.Channels = 0 }, true},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }, true},
		{"zero channel buffer", func(c *Config) { c.ChannelBufferSize = 0 }, true},
		{"float format", func(c *Config) { c.Format = "f32" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := NewRecorder(cfg).validateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecorder_BuildPwRecordArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "alsa_input.usb-mic"
	args := NewRecorder(cfg).buildPwRecordArgs()

	want := []string{"--format", "s16", "--rate", "16000", "--channels", "1", "-", "--target", "alsa_input.usb-mic"}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestRecorder_Pump(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferSize = 4
	r := NewRecorder(cfg)

	t.Run("eof ends cleanly", func(t *testing.T) {
		frames := make(chan AudioFrame, 10)
		errs := make(chan error, 1)
		r.pump(context.Background(), bytes.NewReader([]byte("abcdefgh")), frames, errs)
		close(frames)

		var got []byte
		for f := range frames {
			got = append(got, f.Data...)
		}
		if string(got) != "abcdefgh" {
			t.Errorf("pumped %q", got)
		}
		if len(errs) != 0 {
			t.Error("unexpected error on EOF")
		}
	})

	t.Run("full channel drops frames", func(t *testing.T) {
		frames := make(chan AudioFrame) // nobody reads
		errs := make(chan error, 1)
		before := r.Dropped()
		r.pump(context.Background(), io.LimitReader(bytes.NewReader(make([]byte, 16)), 16), frames, errs)
		if r.Dropped()-before != 4 {
			t.Errorf("dropped %d frames, want 4", r.Dropped()-before)
		}
	})

	t.Run("read error is reported", func(t *testing.T) {
		frames := make(chan AudioFrame, 1)
		errs := make(chan error, 1)
		r.pump(context.Background(), errReader{errors.New("device gone")}, frames, errs)
		select {
		case err := <-errs:
			if err == nil {
				t.Error("nil error")
			}
		default:
			t.Error("expected error on errCh")
		}
	})
}

func TestWAVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	w, err := CreateWAV(path, 16000, 1)
	if err != nil {
		t.Fatal(err)
	}
	pcm := bytes.Repeat([]byte{1, 2}, 500)
	if _, err := w.Write(pcm); err != nil {
		t.Fatal(err)
	}
	if w.DataSize() != 1000 {
		t.Errorf("DataSize() = %d", w.DataSize())
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != wavHeaderSize+1000 {
		t.Errorf("file size = %d, want %d", info.Size(), wavHeaderSize+1000)
	}

	rate, ch, size, err := ReadWAVInfo(path)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 16000 || ch != 1 || size != 1000 {
		t.Errorf("ReadWAVInfo() = %d, %d, %d", rate, ch, size)
	}
}

func TestReadWAVInfoRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.wav")
	os.WriteFile(path, bytes.Repeat([]byte("x"), 60), 0o644)
	if _, _, _, err := ReadWAVInfo(path); err == nil {
		t.Error("expected error for non-WAV data")
	}
}

func TestChunkFileName(t *testing.T) {
	if got := ChunkFileName(7); got != "chunk_0007.wav" {
		t.Errorf("ChunkFileName(7) = %s", got)
	}

	tests := []struct {
		name  string
		index int
		ok    bool
	}{
		{"chunk_0007.wav", 7, true},
		{"chunk_12345.wav", 12345, true},
		{"chunk_0007.wav.part", 0, false},
		{"chunk_.wav", 0, false},
		{"notes.txt", 0, false},
	}
	for _, tt := range tests {
		idx, ok := ParseChunkFileName(tt.name)
		if ok != tt.ok || idx != tt.index {
			t.Errorf("ParseChunkFileName(%q) = %d, %v", tt.name, idx, ok)
		}
	}
}

// 100 Hz mono s16 gives 200 bytes per second, small enough to drive by hand.
func tinyConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 100
	cfg.ChunkDuration = time.Second
	cfg.MinChunkBytes = 150
	return cfg
}

func frame(n int, at time.Time) AudioFrame {
	return AudioFrame{Data: make([]byte, n), Timestamp: at}
}

func TestSegmenter_RotatesByDuration(t *testing.T) {
	dir := t.TempDir()
	seg := NewSegmenter(tinyConfig(), dir, 3)

	frames := make(chan AudioFrame, 10)
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		frames <- frame(100, base.Add(time.Duration(i)*500*time.Millisecond))
	}
	close(frames)

	if err := seg.Run(context.Background(), frames); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var chunks []Chunk
	for c := range seg.Chunks() {
		chunks = append(chunks, c)
	}

	// 200 + 200, trailing 100 bytes is under the minimum
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Index != 3 || chunks[1].Index != 4 {
		t.Errorf("indices = %d, %d", chunks[0].Index, chunks[1].Index)
	}
	if !chunks[1].StartedAt.Equal(base.Add(time.Second)) {
		t.Errorf("chunk 4 started at %v", chunks[1].StartedAt)
	}
	if filepath.Base(chunks[0].Path) != "chunk_0003.wav" {
		t.Errorf("path = %s", chunks[0].Path)
	}

	_, _, size, err := ReadWAVInfo(chunks[0].Path)
	if err != nil || size != 200 {
		t.Errorf("chunk 3 size = %d, err = %v", size, err)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.part"))
	if len(leftovers) != 0 {
		t.Errorf("partial files left behind: %v", leftovers)
	}
	if _, err := os.Stat(filepath.Join(dir, "chunk_0005.wav")); !os.IsNotExist(err) {
		t.Error("short trailing chunk should have been discarded")
	}
}

func TestSegmenter_Cut(t *testing.T) {
	cfg := tinyConfig()
	cfg.ChunkDuration = time.Hour
	cfg.MinChunkBytes = 1
	seg := NewSegmenter(cfg, t.TempDir(), 0)

	frames := make(chan AudioFrame)
	done := make(chan error, 1)
	go func() { done <- seg.Run(context.Background(), frames) }()

	frames <- frame(10, time.Now())
	seg.Cut()

	select {
	case c := <-seg.Chunks():
		if c.Index != 0 {
			t.Errorf("first chunk index = %d", c.Index)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Cut() did not produce a chunk")
	}

	frames <- frame(10, time.Now())
	close(frames)

	c, ok := <-seg.Chunks()
	if !ok || c.Index != 1 {
		t.Errorf("second chunk = %+v, %v", c, ok)
	}
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if _, ok := <-seg.Chunks(); ok {
		t.Error("Chunks() should be closed after Run returns")
	}
}

func TestSegmenter_CutWithoutAudioIsNoop(t *testing.T) {
	seg := NewSegmenter(tinyConfig(), t.TempDir(), 0)
	frames := make(chan AudioFrame)
	seg.Cut()
	close(frames)
	if err := seg.Run(context.Background(), frames); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-seg.Chunks(); ok {
		t.Error("no chunk expected")
	}
}

func writeChunkFile(t *testing.T, dir string, index int) string {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "incoming.wav")
	if err := os.WriteFile(tmp, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	final := filepath.Join(dir, ChunkFileName(index))
	if err := os.Rename(tmp, final); err != nil {
		t.Fatal(err)
	}
	return final
}

func writeWAVChunk(t *testing.T, dir string, index int, pcm []byte) string {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "incoming.wav")
	w, err := CreateWAV(tmp, 16000, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(pcm); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	final := filepath.Join(dir, ChunkFileName(index))
	if err := os.Rename(tmp, final); err != nil {
		t.Fatal(err)
	}
	return final
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeChunkFile(t, dir, 1) // below fromIndex
	writeChunkFile(t, dir, 4)
	writeChunkFile(t, dir, 2)

	src := NewDirSource(dir, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer src.Stop()

	next := func() Chunk {
		t.Helper()
		select {
		case c := <-src.Chunks():
			return c
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for chunk")
		}
		return Chunk{}
	}

	if c := next(); c.Index != 2 {
		t.Errorf("first existing chunk = %d, want 2", c.Index)
	}
	if c := next(); c.Index != 4 {
		t.Errorf("second existing chunk = %d, want 4", c.Index)
	}

	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	path := writeChunkFile(t, dir, 5)

	c := next()
	if c.Index != 5 || c.Path != path {
		t.Errorf("watched chunk = %+v", c)
	}

	// one second of 16 kHz mono audio ends at the file's mtime
	path = writeWAVChunk(t, dir, 6, make([]byte, 32000))
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	c = next()
	if c.Index != 6 {
		t.Fatalf("watched chunk = %+v", c)
	}
	if want := info.ModTime().Add(-time.Second); !c.StartedAt.Equal(want) {
		t.Errorf("StartedAt = %v, want %v", c.StartedAt, want)
	}
}

func TestChunkStartFallsBackToModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunk_0000.wav")
	os.WriteFile(path, []byte("RIFF"), 0o644)
	mod := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := chunkStart(path, mod); !got.Equal(mod) {
		t.Errorf("chunkStart() = %v, want %v", got, mod)
	}
}
