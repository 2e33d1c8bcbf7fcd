package recording

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Segmenter cuts a PCM frame stream into WAV chunk files. A chunk ends when
// it holds ChunkDuration of audio or when Cut is called. Chunks shorter than
// MinChunkBytes are deleted and do not consume an index.
type Segmenter struct {
	cfg   Config
	dir   string
	next  int
	cutCh chan struct{}
	out   chan Chunk

	current   *WAVWriter
	startedAt time.Time
}

func NewSegmenter(cfg Config, dir string, firstIndex int) *Segmenter {
	return &Segmenter{
		cfg:   cfg,
		dir:   dir,
		next:  firstIndex,
		cutCh: make(chan struct{}, 1),
		out:   make(chan Chunk, 16),
	}
}

// Chunks is closed when Run returns
func (s *Segmenter) Chunks() <-chan Chunk {
	return s.out
}

// Cut ends the current chunk at the next frame boundary. Never blocks.
func (s *Segmenter) Cut() {
	select {
	case s.cutCh <- struct{}{}:
	default:
	}
}

func (s *Segmenter) chunkBytes() int {
	n := int(s.cfg.ChunkDuration.Seconds() * float64(s.cfg.BytesPerSecond()))
	if n <= 0 {
		return math.MaxInt
	}
	return n
}

// Run consumes frames until the channel closes or ctx is cancelled, then
// finishes the chunk in progress.
func (s *Segmenter) Run(ctx context.Context, frames <-chan AudioFrame) error {
	defer close(s.out)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}

	limit := s.chunkBytes()
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return s.finish()
			}
			if err := s.write(frame); err != nil {
				log.Printf("Segmenter: %v", err)
				continue
			}
			if s.current != nil && s.current.DataSize() >= limit {
				if err := s.finish(); err != nil {
					log.Printf("Segmenter: %v", err)
				}
			}

		case <-s.cutCh:
			if err := s.finish(); err != nil {
				log.Printf("Segmenter: %v", err)
			}

		case <-ctx.Done():
			return s.finish()
		}
	}
}

func (s *Segmenter) write(frame AudioFrame) error {
	if s.current == nil {
		path := filepath.Join(s.dir, ChunkFileName(s.next)+".part")
		w, err := CreateWAV(path, s.cfg.SampleRate, s.cfg.Channels)
		if err != nil {
			return err
		}
		s.current = w
		s.startedAt = frame.Timestamp
		if s.startedAt.IsZero() {
			s.startedAt = time.Now()
		}
	}
	if _, err := s.current.Write(frame.Data); err != nil {
		return fmt.Errorf("write chunk %d: %w", s.next, err)
	}
	return nil
}

// finish closes the chunk in progress and emits it
func (s *Segmenter) finish() error {
	w := s.current
	if w == nil {
		return nil
	}
	s.current = nil

	partPath := w.Name()
	if err := w.Close(); err != nil {
		return fmt.Errorf("close chunk %d: %w", s.next, err)
	}

	if w.DataSize() < s.cfg.MinChunkBytes {
		log.Printf("Segmenter: discarding chunk %d, %d bytes is below the %d byte minimum", s.next, w.DataSize(), s.cfg.MinChunkBytes)
		os.Remove(partPath)
		return nil
	}

	finalPath := filepath.Join(s.dir, ChunkFileName(s.next))
	if err := os.Rename(partPath, finalPath); err != nil {
		return fmt.Errorf("finalize chunk %d: %w", s.next, err)
	}

	chunk := Chunk{Path: finalPath, Index: s.next, StartedAt: s.startedAt}
	s.next++
	log.Printf("Segmenter: chunk %d ready (%d bytes)", chunk.Index, w.DataSize())
	s.out <- chunk
	return nil
}
