package recording

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Chunk is one finished audio file handed to the processor.
type Chunk struct {
	Path      string
	Index     int
	StartedAt time.Time
}

// ChunkFileName is the on-disk name for a chunk index
func ChunkFileName(index int) string {
	return fmt.Sprintf("chunk_%04d.wav", index)
}

var chunkNamePattern = regexp.MustCompile(`^chunk_(\d+)\.wav$`)

// ParseChunkFileName extracts the index from a chunk file name
func ParseChunkFileName(name string) (int, bool) {
	m := chunkNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return idx, true
}
