package recording

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DirSource emits chunk_NNNN.wav files as they appear in a directory.
// Producers must write elsewhere and rename into the directory, so a file
// is complete when its Create event arrives.
type DirSource struct {
	dir       string
	fromIndex int
	out       chan Chunk

	mu      sync.Mutex
	seen    map[int]bool
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// NewDirSource watches dir. Files already present with an index >= fromIndex
// are emitted first, in index order.
func NewDirSource(dir string, fromIndex int) *DirSource {
	return &DirSource{
		dir:       dir,
		fromIndex: fromIndex,
		out:       make(chan Chunk, 16),
		seen:      make(map[int]bool),
	}
}

// Chunks is closed once the watch loop exits
func (d *DirSource) Chunks() <-chan Chunk {
	return d.out
}

// Start installs the watch before returning, so files created afterwards are
// never missed.
func (d *DirSource) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(d.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", d.dir, err)
	}
	d.watcher = watcher

	existing, err := d.scan()
	if err != nil {
		log.Printf("DirSource: scanning %s: %v", d.dir, err)
	}

	d.wg.Add(1)
	go d.loop(ctx, existing)

	log.Printf("DirSource: watching %s for chunk files", d.dir)
	return nil
}

// Stop ends the watch loop and waits for it
func (d *DirSource) Stop() {
	if d.watcher != nil {
		d.watcher.Close()
	}
	d.wg.Wait()
}

func (d *DirSource) scan() ([]Chunk, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	var chunks []Chunk
	for _, e := range entries {
		if c, ok := d.claim(filepath.Join(d.dir, e.Name())); ok {
			chunks = append(chunks, c)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// claim returns the chunk for path the first time it is seen
func (d *DirSource) claim(path string) (Chunk, bool) {
	idx, ok := ParseChunkFileName(filepath.Base(path))
	if !ok || idx < d.fromIndex {
		return Chunk{}, false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Chunk{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[idx] {
		return Chunk{}, false
	}
	d.seen[idx] = true
	return Chunk{Path: path, Index: idx, StartedAt: chunkStart(path, info.ModTime())}, true
}

// chunkStart derives when recording of a finished chunk began. The file is
// written up to the end of its audio, so its mtime marks the chunk end.
func chunkStart(path string, modTime time.Time) time.Time {
	rate, channels, size, err := ReadWAVInfo(path)
	if err != nil || rate <= 0 || channels <= 0 {
		return modTime
	}
	bytesPerSecond := int64(rate) * int64(channels) * 2
	return modTime.Add(-time.Duration(int64(size) * int64(time.Second) / bytesPerSecond))
}

func (d *DirSource) loop(ctx context.Context, existing []Chunk) {
	defer d.wg.Done()
	defer close(d.out)

	for _, c := range existing {
		select {
		case d.out <- c:
		case <-ctx.Done():
			return
		}
	}

	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			c, ok := d.claim(event.Name)
			if !ok {
				continue
			}
			select {
			case d.out <- c:
			case <-ctx.Done():
				return
			}

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("DirSource watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}
