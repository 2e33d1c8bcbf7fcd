package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// SessionMeta is the small JSON record kept next to each session so a later
// process can resume it without guessing from filenames.
type SessionMeta struct {
	ID          string     `json:"id"`
	MeetingName string     `json:"meeting_name"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

func (l Layout) SaveMeta(meta SessionMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session meta: %w", err)
	}
	return WriteFileAtomic(l.MetaPath(meta.ID), data, 0o644)
}

// LoadMeta reads the metadata for sessionID. A missing file is reported with
// an error wrapping os.ErrNotExist.
func (l Layout) LoadMeta(sessionID string) (SessionMeta, error) {
	var meta SessionMeta
	data, err := os.ReadFile(l.MetaPath(sessionID))
	if err != nil {
		return meta, fmt.Errorf("read session meta: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parse session meta: %w", err)
	}
	if meta.ID == "" {
		return meta, errors.New("session meta has no id")
	}
	return meta, nil
}
