package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/leonardotrapani/hyprminutes/internal/llm"
	"github.com/leonardotrapani/hyprminutes/internal/metrics"
	"github.com/leonardotrapani/hyprminutes/internal/minutes"
	"github.com/leonardotrapani/hyprminutes/internal/notify"
	"github.com/leonardotrapani/hyprminutes/internal/pipeline"
	"github.com/leonardotrapani/hyprminutes/internal/queue"
	"github.com/leonardotrapani/hyprminutes/internal/recording"
	"github.com/leonardotrapani/hyprminutes/internal/storage"
	"github.com/leonardotrapani/hyprminutes/internal/transcriber"
	"github.com/leonardotrapani/hyprminutes/internal/transcript"
)

var (
	ErrSessionFinalized = errors.New("session already finalized")
	ErrNoSession        = errors.New("no active session")
	ErrSessionActive    = errors.New("session already active")
	ErrChunkOutOfOrder  = errors.New("chunk index out of order")
)

const (
	DefaultFinalizeTimeout = 2 * time.Minute
	DefaultMeetingName     = "Meeting"
)

type Options struct {
	Layout      storage.Layout
	Meeting     string
	Template    string
	StylePath   string
	AgendaPath  string
	Transcriber transcriber.Adapter
	Summarizer  llm.Adapter // nil queues every transcript

	TranscriptionTimeout time.Duration
	SummarizationTimeout time.Duration
	FinalizeTimeout      time.Duration

	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Summary describes a finalized session.
type Summary struct {
	SessionID      string
	Meeting        string
	StartedAt      time.Time
	EndedAt        time.Time
	Chunks         int
	Merged         int
	Queued         int
	NoSpeech       int
	Abandoned      []int // chunks still in flight when the wait ran out
	Drained        int
	Pending        int
	MinutesPath    string
	TranscriptPath string
	QueuePath      string
}

// Status is a point-in-time view of a running session.
type Status struct {
	SessionID string
	Meeting   string
	Active    bool
	StartedAt time.Time
	NextIndex int
	Submitted int
	InFlight  int
	Pending   int
}

// Coordinator owns one recording session at a time: it accepts chunks,
// hands them to the processor and closes the session down.
type Coordinator struct {
	opts Options

	mu        sync.Mutex
	meta      storage.SessionMeta
	active    bool
	finalized bool
	nextIndex int
	tasks     []*pipeline.Task
	synth     *minutes.Synthesizer
	log       *transcript.Log
	proc      *pipeline.Processor
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.FinalizeTimeout <= 0 {
		opts.FinalizeTimeout = DefaultFinalizeTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Meeting == "" {
		opts.Meeting = DefaultMeetingName
	}
	return &Coordinator{opts: opts}
}

// Begin opens a session. An empty hint creates a new one; otherwise hint is
// the id of an earlier session, which is resumed with its document and queue.
func (c *Coordinator) Begin(hint string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return "", ErrSessionActive
	}

	layout := c.opts.Layout
	if err := layout.EnsureDirs(); err != nil {
		return "", fmt.Errorf("prepare data dir: %w", err)
	}

	resuming := hint != ""
	var meta storage.SessionMeta
	if resuming {
		m, err := layout.LoadMeta(hint)
		if err != nil {
			return "", fmt.Errorf("resume session %s: %w", hint, err)
		}
		meta = m
		meta.EndedAt = nil
		if meta.MeetingName == "" {
			meta.MeetingName = c.opts.Meeting
		}
	} else {
		now := c.opts.Now()
		meta = storage.SessionMeta{
			ID:          layout.NewSessionID(now),
			MeetingName: c.opts.Meeting,
			StartedAt:   now,
		}
	}

	if err := os.MkdirAll(layout.AudioDir(meta.ID), 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	q, err := queue.Open(queue.NewFileStore(layout.QueuePath(meta.ID)))
	if err != nil {
		return "", fmt.Errorf("load retry queue: %w", err)
	}
	if q.Len() > 0 {
		log.Printf("Session: loaded %d queued transcripts from previous run", q.Len())
	}

	minutesPath := layout.MinutesPath(meta.ID, meta.MeetingName)
	if existing, ok := layout.FindMinutes(meta.ID); ok {
		minutesPath = existing
	}

	synth := minutes.New(minutesPath, q, c.opts.Summarizer, minutes.Options{
		Meeting:    meta.MeetingName,
		StartedAt:  meta.StartedAt,
		Template:   c.opts.Template,
		StylePath:  c.opts.StylePath,
		AgendaPath: c.opts.AgendaPath,
		Timeout:    c.opts.SummarizationTimeout,
		Notifier:   c.opts.Notifier,
		Metrics:    c.opts.Metrics,
	})
	if resuming {
		if err := synth.Load(); err != nil {
			return "", fmt.Errorf("resume session %s: %w", meta.ID, err)
		}
	}

	tlog := transcript.NewLog(layout.TranscriptPath(meta.ID))
	c.proc = pipeline.NewProcessor(c.opts.Transcriber, tlog, synth, pipeline.Options{
		TranscriptionTimeout: c.opts.TranscriptionTimeout,
		Notifier:             c.opts.Notifier,
		Metrics:              c.opts.Metrics,
	})

	c.meta = meta
	c.synth = synth
	c.log = tlog
	c.tasks = nil
	c.nextIndex = 0
	if resuming {
		c.nextIndex = nextChunkIndex(layout.AudioDir(meta.ID))
	}
	c.active = true
	c.finalized = false

	if err := layout.SaveMeta(meta); err != nil {
		log.Printf("Session: failed to save metadata: %v", err)
		c.opts.Metrics.PersistFailed("meta")
	}

	log.Printf("Session: %s started (meeting %q, next chunk %d)", meta.ID, meta.MeetingName, c.nextIndex)
	c.opts.Notifier.RecordingStarted(meta.MeetingName)
	return meta.ID, nil
}

// nextChunkIndex returns one past the highest chunk file already in dir.
func nextChunkIndex(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	next := 0
	for _, e := range entries {
		if idx, ok := recording.ParseChunkFileName(e.Name()); ok && idx >= next {
			next = idx + 1
		}
	}
	return next
}

// SubmitChunk hands a captured chunk to the processor and returns at once.
// Indices must increase; a gap is accepted with a warning.
func (c *Coordinator) SubmitChunk(audioPath string, index int, start time.Time) (*pipeline.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		if c.finalized {
			return nil, ErrSessionFinalized
		}
		return nil, ErrNoSession
	}
	if index < c.nextIndex {
		return nil, fmt.Errorf("%w: got %d, expected %d or later", ErrChunkOutOfOrder, index, c.nextIndex)
	}
	if index > c.nextIndex {
		log.Printf("Session: chunk index jumped from %d to %d", c.nextIndex, index)
	}
	c.nextIndex = index + 1

	task := c.proc.Submit(context.Background(), recording.Chunk{
		Path:      audioPath,
		Index:     index,
		StartedAt: start,
	})
	c.tasks = append(c.tasks, task)
	return task, nil
}

// NextIndex is the index the next chunk should carry.
func (c *Coordinator) NextIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextIndex
}

func (c *Coordinator) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meta.ID
}

// AudioDir is where chunk files for the current session belong.
func (c *Coordinator) AudioDir() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.meta.ID == "" {
		return ""
	}
	return c.opts.Layout.AudioDir(c.meta.ID)
}

// Flush drains the retry queue now instead of waiting for the next merge.
func (c *Coordinator) Flush(ctx context.Context) int {
	c.mu.Lock()
	synth := c.synth
	c.mu.Unlock()
	if synth == nil {
		return 0
	}
	n := synth.DrainQueue(ctx)
	synth.PersistQueue()
	return n
}

// SetClient replaces the summarization client for the current and any
// later session.
func (c *Coordinator) SetClient(client llm.Adapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.Summarizer = client
	if c.synth != nil {
		c.synth.SetClient(client)
	}
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		SessionID: c.meta.ID,
		Meeting:   c.meta.MeetingName,
		Active:    c.active,
		StartedAt: c.meta.StartedAt,
		NextIndex: c.nextIndex,
		Submitted: len(c.tasks),
	}
	for _, t := range c.tasks {
		if _, done := t.Outcome(); !done {
			st.InFlight++
		}
	}
	if c.synth != nil {
		st.Pending = c.synth.Pending()
	}
	return st
}

// Finalize closes the session. It waits up to the finalize timeout for
// chunks in flight, replays the queue once more, stamps the end time and
// records it in the session metadata. In-flight work is not cancelled.
func (c *Coordinator) Finalize(ctx context.Context) (Summary, error) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		if c.finalized {
			return Summary{}, ErrSessionFinalized
		}
		return Summary{}, ErrNoSession
	}
	c.active = false
	c.finalized = true
	tasks := append([]*pipeline.Task(nil), c.tasks...)
	meta := c.meta
	synth := c.synth
	tlog := c.log
	c.mu.Unlock()

	sum := Summary{
		SessionID:      meta.ID,
		Meeting:        meta.MeetingName,
		StartedAt:      meta.StartedAt,
		Chunks:         len(tasks),
		MinutesPath:    synth.Path(),
		TranscriptPath: tlog.Path(),
		QueuePath:      c.opts.Layout.QueuePath(meta.ID),
	}

	if len(tasks) > 0 {
		log.Printf("Session: waiting for %d chunks to finish processing", len(tasks))
	}
	waitCtx, cancel := context.WithTimeout(ctx, c.opts.FinalizeTimeout)
	for _, t := range tasks {
		out, err := t.Wait(waitCtx)
		if err != nil {
			sum.Abandoned = append(sum.Abandoned, t.Chunk.Index)
			continue
		}
		switch out.Status {
		case pipeline.Merged:
			sum.Merged++
		case pipeline.Queued:
			sum.Queued++
		case pipeline.NoSpeech:
			sum.NoSpeech++
		}
	}
	cancel()
	if len(sum.Abandoned) > 0 {
		log.Printf("Session: gave up waiting for chunks %v, audio kept in %s", sum.Abandoned, c.opts.Layout.AudioDir(meta.ID))
	}

	if synth.Pending() > 0 {
		log.Printf("Session: processing %d queued transcripts before closing", synth.Pending())
		sum.Drained = synth.DrainQueue(ctx)
	}

	end := c.opts.Now()
	synth.StampEnd(end)
	synth.PersistQueue()
	sum.EndedAt = end
	sum.Pending = synth.Pending()

	meta.EndedAt = &end
	if err := c.opts.Layout.SaveMeta(meta); err != nil {
		log.Printf("Session: failed to save metadata: %v", err)
		c.opts.Metrics.PersistFailed("meta")
	}
	c.mu.Lock()
	c.meta = meta
	c.mu.Unlock()

	if sum.Pending > 0 {
		log.Printf("Session: %d transcripts still queued in %s", sum.Pending, sum.QueuePath)
	}
	log.Printf("Session: %s finalized, minutes at %s", meta.ID, sum.MinutesPath)
	c.opts.Notifier.RecordingEnded(meta.MeetingName)
	return sum, nil
}
