package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/leonardotrapani/hyprminutes/internal/storage"
)

// FileStore keeps the queue as a JSON array in a single file that is fully
// rewritten on every save.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load returns the snapshot contents. A missing file is an empty queue.
func (s *FileStore) Load() ([]Item, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse queue snapshot %s: %w", s.Path, err)
	}
	return items, nil
}

func (s *FileStore) Save(items []Item) error {
	if items == nil {
		items = []Item{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal queue snapshot: %w", err)
	}
	if err := storage.WriteFileAtomic(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("write queue snapshot: %w", err)
	}
	return nil
}
