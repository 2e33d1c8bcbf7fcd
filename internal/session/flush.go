package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/leonardotrapani/hyprminutes/internal/llm"
	"github.com/leonardotrapani/hyprminutes/internal/metrics"
	"github.com/leonardotrapani/hyprminutes/internal/minutes"
	"github.com/leonardotrapani/hyprminutes/internal/notify"
	"github.com/leonardotrapani/hyprminutes/internal/queue"
	"github.com/leonardotrapani/hyprminutes/internal/storage"
)

// ErrNoClient is returned by FlushPending when there is nothing to merge with.
var ErrNoClient = errors.New("no summarization client configured")

type FlushOptions struct {
	Template   string
	StylePath  string
	AgendaPath string
	Timeout    time.Duration
	Notifier   notify.Notifier
	Metrics    *metrics.Metrics
	Skip       []string // session ids owned by a running recorder
}

// FlushResult reports what happened to one session's queue.
type FlushResult struct {
	SessionID   string
	Meeting     string
	Queued      int // items found
	Merged      int
	Remaining   int
	MinutesPath string
	Err         error
}

// FlushPending drains every non-empty retry queue under layout, oldest
// session first. A session that fails is reported and the rest still run.
func FlushPending(ctx context.Context, layout storage.Layout, client llm.Adapter, opts FlushOptions) ([]FlushResult, error) {
	if client == nil {
		return nil, ErrNoClient
	}
	ids, err := layout.QueuedSessions()
	if err != nil {
		return nil, err
	}

	skip := make(map[string]bool, len(opts.Skip))
	for _, id := range opts.Skip {
		skip[id] = true
	}

	var results []FlushResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if skip[id] {
			continue
		}
		res, ok := flushSession(ctx, layout, id, client, opts)
		if !ok {
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func flushSession(ctx context.Context, layout storage.Layout, id string, client llm.Adapter, opts FlushOptions) (FlushResult, bool) {
	res := FlushResult{SessionID: id}

	q, err := queue.Open(queue.NewFileStore(layout.QueuePath(id)))
	if err != nil {
		res.Err = fmt.Errorf("load queue: %w", err)
		return res, true
	}
	if q.Len() == 0 {
		return res, false
	}
	res.Queued = q.Len()

	meeting, startedAt := recoverSessionInfo(layout, id)
	res.Meeting = meeting

	path := layout.MinutesPath(id, meeting)
	if existing, ok := layout.FindMinutes(id); ok {
		path = existing
	}
	res.MinutesPath = path

	synth := minutes.New(path, q, client, minutes.Options{
		Meeting:    meeting,
		StartedAt:  startedAt,
		Template:   opts.Template,
		StylePath:  opts.StylePath,
		AgendaPath: opts.AgendaPath,
		Timeout:    opts.Timeout,
		Notifier:   opts.Notifier,
		Metrics:    opts.Metrics,
	})
	if err := synth.Load(); err != nil {
		res.Err = err
		res.Remaining = q.Len()
		return res, true
	}

	log.Printf("Flush: session %s has %d queued transcripts", id, res.Queued)
	res.Merged = synth.DrainQueue(ctx)
	synth.PersistQueue()
	res.Remaining = synth.Pending()
	if res.Merged == 0 {
		items := synth.PendingItems()
		reason := "unknown"
		if len(items) > 0 {
			reason = items[len(items)-1].Reason
		}
		res.Err = fmt.Errorf("still queued: %s", reason)
	}
	return res, true
}

// recoverSessionInfo finds the meeting name and start time of a session from
// its metadata, falling back to the minutes file name and the session id.
func recoverSessionInfo(layout storage.Layout, id string) (string, time.Time) {
	if meta, err := layout.LoadMeta(id); err == nil {
		name := meta.MeetingName
		if name == "" {
			name = DefaultMeetingName
		}
		return name, meta.StartedAt
	}

	started, err := time.ParseInLocation(storage.SessionIDFormat, idTimestamp(id), time.Local)
	if err != nil {
		started = time.Now()
	}

	if path, ok := layout.FindMinutes(id); ok {
		base := strings.TrimSuffix(filepath.Base(path), ".md")
		if name := strings.TrimPrefix(base, id+"_"); name != base && name != "" {
			return strings.ReplaceAll(name, "_", " "), started
		}
	}
	return DefaultMeetingName, started
}

// idTimestamp strips a _N uniqueness suffix from a session id.
func idTimestamp(id string) string {
	n := len(storage.SessionIDFormat)
	if len(id) > n {
		return id[:n]
	}
	return id
}
