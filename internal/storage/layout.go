package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// SessionIDFormat is the layout used to derive session ids from the creation time.
const SessionIDFormat = "20060102_150405"

const (
	audioDir       = "audio"
	transcriptsDir = "transcripts"
	minutesDir     = "minutes"
	queueDir       = "queue"
	sessionsDir    = "sessions"

	queueSuffix = "_offline_queue.json"
)

// Layout resolves every per-session file below a single data directory.
//
//	<data>/audio/<id>/chunk_0000.wav
//	<data>/transcripts/<id>_raw.txt
//	<data>/minutes/<id>_<meeting>.md
//	<data>/queue/<id>_offline_queue.json
//	<data>/sessions/<id>_session.json
type Layout struct {
	DataDir string
}

func NewLayout(dataDir string) Layout {
	return Layout{DataDir: dataDir}
}

// EnsureDirs creates the top-level directories. Safe to call repeatedly.
func (l Layout) EnsureDirs() error {
	for _, d := range []string{audioDir, transcriptsDir, minutesDir, queueDir, sessionsDir} {
		if err := os.MkdirAll(filepath.Join(l.DataDir, d), 0o755); err != nil {
			return fmt.Errorf("create %s dir: %w", d, err)
		}
	}
	return nil
}

func (l Layout) AudioDir(sessionID string) string {
	return filepath.Join(l.DataDir, audioDir, sessionID)
}

func (l Layout) ChunkPath(sessionID string, index int) string {
	return filepath.Join(l.AudioDir(sessionID), fmt.Sprintf("chunk_%04d.wav", index))
}

func (l Layout) TranscriptPath(sessionID string) string {
	return filepath.Join(l.DataDir, transcriptsDir, sessionID+"_raw.txt")
}

func (l Layout) MinutesPath(sessionID, meetingName string) string {
	name := sessionID
	if slug := Slug(meetingName); slug != "" {
		name += "_" + slug
	}
	return filepath.Join(l.DataDir, minutesDir, name+".md")
}

func (l Layout) QueuePath(sessionID string) string {
	return filepath.Join(l.DataDir, queueDir, sessionID+queueSuffix)
}

func (l Layout) MetaPath(sessionID string) string {
	return filepath.Join(l.DataDir, sessionsDir, sessionID+"_session.json")
}

// FindMinutes returns the minutes file belonging to sessionID, if any.
// Files of a later session that shares the timestamp (<id>_2_...) are skipped.
func (l Layout) FindMinutes(sessionID string) (string, bool) {
	matches, _ := filepath.Glob(filepath.Join(l.DataDir, minutesDir, sessionID+"*.md"))
	sort.Strings(matches)
	for _, m := range matches {
		rest := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), sessionID), ".md")
		if rest == "" {
			return m, true
		}
		if !strings.HasPrefix(rest, "_") {
			continue
		}
		seg, _, _ := strings.Cut(rest[1:], "_")
		if isDigits(seg) && l.exists(sessionID+"_"+seg) {
			continue
		}
		return m, true
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Sessions lists the ids of every session with saved metadata, oldest first.
func (l Layout) Sessions() ([]string, error) {
	const suffix = "_session.json"
	matches, err := filepath.Glob(filepath.Join(l.DataDir, sessionsDir, "*"+suffix))
	if err != nil {
		return nil, fmt.Errorf("glob sessions: %w", err)
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), suffix))
	}
	sort.Strings(ids)
	return ids, nil
}

// QueuedSessions lists the ids of sessions that have a queue snapshot on disk,
// sorted oldest first. Empty snapshots are included; callers decide what to skip.
func (l Layout) QueuedSessions() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.DataDir, queueDir, "*"+queueSuffix))
	if err != nil {
		return nil, fmt.Errorf("glob queue snapshots: %w", err)
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), queueSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}

// NewSessionID derives an id from now and appends _2, _3, ... until no
// session with that id exists yet.
func (l Layout) NewSessionID(now time.Time) string {
	base := now.Format(SessionIDFormat)
	id := base
	for n := 2; l.exists(id); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

func (l Layout) exists(sessionID string) bool {
	if _, err := os.Stat(l.MetaPath(sessionID)); err == nil {
		return true
	}
	if _, err := os.Stat(l.AudioDir(sessionID)); err == nil {
		return true
	}
	return false
}

var slugRe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Slug turns a meeting name into something safe for a filename.
func Slug(name string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.TrimSpace(name), "_"), "_")
}
