package minutes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/hyprminutes/internal/llm"
	"github.com/leonardotrapani/hyprminutes/internal/metrics"
	"github.com/leonardotrapani/hyprminutes/internal/notify"
	"github.com/leonardotrapani/hyprminutes/internal/queue"
	"github.com/leonardotrapani/hyprminutes/internal/storage"
)

// BatchIndex labels a merge of several queued transcripts.
const BatchIndex = -1

const DefaultTimeout = 60 * time.Second

type Outcome int

const (
	Merged Outcome = iota
	Queued
)

func (o Outcome) String() string {
	switch o {
	case Merged:
		return "merged"
	case Queued:
		return "queued"
	}
	return "unknown"
}

// Result of a merge attempt. Reason and Err are set only when Queued.
type Result struct {
	Outcome Outcome
	Reason  string
	Err     error
}

// Options configures a Synthesizer. Zero values are usable.
type Options struct {
	Meeting    string
	StartedAt  time.Time
	Template   string
	StylePath  string // reference minutes to imitate, optional
	AgendaPath string // optional
	Timeout    time.Duration
	Notifier   notify.Notifier
	Metrics    *metrics.Metrics
}

// Synthesizer owns one session's minutes document and retry queue. Every
// merge, drain and queue write goes through its mutex, so merges never overlap.
type Synthesizer struct {
	mu       sync.Mutex
	client   llm.Adapter
	path     string
	document string
	queue    *queue.Queue
	style    string
	agenda   string
	opts     Options

	// notifications raised under mu, delivered by unlock
	notes []func()
}

// New creates a synthesizer writing the document to path. Style and agenda
// files are read once here; a file that cannot be read is treated as absent.
func New(path string, q *queue.Queue, client llm.Adapter, opts Options) *Synthesizer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}
	if q == nil {
		q, _ = queue.Open(nil)
	}

	s := &Synthesizer{
		client: client,
		path:   path,
		queue:  q,
		opts:   opts,
	}
	s.style = loadOptional("style reference", opts.StylePath)
	s.agenda = loadOptional("agenda", opts.AgendaPath)
	s.opts.Metrics.SetQueueLength(q.Len())
	return s
}

func loadOptional(what, path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Minutes: failed to load %s %s, continuing without it: %v", what, path, err)
		return ""
	}
	return string(data)
}

// Load reads a previously written document back, for resumed sessions.
// A missing file leaves the document empty.
func (s *Synthesizer) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read minutes: %w", err)
	}
	s.document = string(data)
	return nil
}

// Merge folds text into the document, or queues it when that fails.
func (s *Synthesizer) Merge(ctx context.Context, text string, index int) Result {
	s.mu.Lock()
	defer s.unlock()
	return s.mergeLocked(ctx, text, index)
}

// unlock releases mu, then delivers the notifications raised while it was
// held. Desktop notifiers shell out and must not stall Document or Flush.
func (s *Synthesizer) unlock() {
	notes := s.notes
	s.notes = nil
	s.mu.Unlock()
	for _, note := range notes {
		note()
	}
}

func (s *Synthesizer) mergeLocked(ctx context.Context, text string, index int) Result {
	if s.client == nil {
		return s.enqueueLocked(text, index, llm.ReasonNoClient, nil)
	}

	if s.document == "" {
		s.document = Seed(s.opts.Template, s.opts.Meeting, s.opts.StartedAt)
		if err := s.saveLocked(); err != nil {
			log.Printf("Minutes: failed to write seeded document: %v", err)
		}
	}

	prompt := llm.BuildMergePrompt(llm.MergeRequest{
		Style:      s.style,
		Agenda:     s.agenda,
		Document:   s.document,
		Transcript: text,
		ChunkIndex: index,
	})

	start := time.Now()
	out, err := s.complete(ctx, prompt)
	if err == nil && strings.TrimSpace(out) == "" {
		err = llm.ErrEmptyResponse
	}

	if err != nil {
		reason := llm.Classify(err)
		s.opts.Metrics.ObserveMerge(time.Since(start), reason)
		log.Printf("Minutes: %s not merged: %v", llm.ChunkLabel(index), err)
		return s.enqueueLocked(text, index, reason, err)
	}
	s.opts.Metrics.ObserveMerge(time.Since(start), "")

	s.document = out
	if err := s.saveLocked(); err != nil {
		log.Printf("Minutes: failed to write %s: %v", s.path, err)
	} else {
		log.Printf("Minutes: %s merged into %s", llm.ChunkLabel(index), s.path)
	}
	return Result{Outcome: Merged}
}

// complete calls the client with the merge timeout. A panicking client is
// reported as an error so the transcript is queued like any other failure.
func (s *Synthesizer) complete(ctx context.Context, prompt string) (out string, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Minutes: summarization client panicked: %v", r)
			out, err = "", fmt.Errorf("summarization panic: %v", r)
		}
	}()
	return s.client.Complete(ctx, prompt)
}

// DrainQueue merges every queued transcript in one batch and returns how
// many items were merged. On failure the batch goes back as a single item.
func (s *Synthesizer) DrainQueue(ctx context.Context) int {
	s.mu.Lock()
	defer s.unlock()

	if s.client == nil || s.queue.Len() == 0 {
		return 0
	}

	items, err := s.queue.TakeAll()
	if err != nil {
		s.persistFailed(err)
	}
	s.opts.Metrics.SetQueueLength(0)

	res := s.mergeLocked(ctx, CombineItems(items), BatchIndex)
	if res.Outcome != Merged {
		return 0
	}

	log.Printf("Minutes: processed %d queued transcripts", len(items))
	s.opts.Metrics.Drained(len(items))
	n := len(items)
	s.notes = append(s.notes, func() { s.opts.Notifier.QueueDrained(n) })
	return n
}

// CombineItems renders queued items as "[Chunk N]" blocks in queue order.
// A batch that was queued again already carries its headers.
func CombineItems(items []queue.Item) string {
	blocks := make([]string, len(items))
	for i, item := range items {
		if item.ChunkIndex < 0 {
			blocks[i] = item.Text
			continue
		}
		blocks[i] = fmt.Sprintf("[Chunk %d]\n%s", item.ChunkIndex, item.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// Enqueue pushes text onto the retry queue without attempting a merge.
func (s *Synthesizer) Enqueue(text string, index int, reason string) {
	s.mu.Lock()
	defer s.unlock()
	s.enqueueLocked(text, index, reason, nil)
}

func (s *Synthesizer) enqueueLocked(text string, index int, reason string, cause error) Result {
	err := s.queue.Push(queue.Item{ChunkIndex: index, Text: text, Reason: reason})
	if err != nil {
		s.persistFailed(err)
	}
	n := s.queue.Len()
	s.opts.Metrics.SetQueueLength(n)
	log.Printf("Minutes: [Queued] %s (queue size: %d)", reason, n)
	s.notes = append(s.notes, func() { s.opts.Notifier.ChunkQueued(index, reason) })
	return Result{Outcome: Queued, Reason: reason, Err: cause}
}

// PersistQueue rewrites the queue snapshot. Errors are logged, not returned.
func (s *Synthesizer) PersistQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.queue.Persist(); err != nil {
		s.persistFailed(err)
	}
}

func (s *Synthesizer) persistFailed(err error) {
	log.Printf("Minutes: failed to persist retry queue: %v", err)
	s.opts.Metrics.PersistFailed("queue")
}

// StampEnd writes the end time into the document. An empty document is
// seeded first so the stamp always lands somewhere.
func (s *Synthesizer) StampEnd(end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == "" {
		s.document = Seed(s.opts.Template, s.opts.Meeting, s.opts.StartedAt)
	}
	stamped := StampEnd(s.document, end)
	if stamped == s.document {
		log.Printf("Minutes: no %s placeholder left, end time not stamped", PlaceholderEndTime)
	}
	s.document = stamped
	if err := s.saveLocked(); err != nil {
		log.Printf("Minutes: failed to write %s: %v", s.path, err)
	}
}

// SetClient swaps the summarization client, e.g. after a config reload.
// nil disables merging; transcripts are queued until a client returns.
func (s *Synthesizer) SetClient(client llm.Adapter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

func (s *Synthesizer) HasClient() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

func (s *Synthesizer) Document() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

func (s *Synthesizer) Pending() int {
	return s.queue.Len()
}

// PendingItems returns a copy of the queued items.
func (s *Synthesizer) PendingItems() []queue.Item {
	return s.queue.Items()
}

func (s *Synthesizer) Path() string {
	return s.path
}

func (s *Synthesizer) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := storage.WriteFileAtomic(s.path, []byte(s.document), 0o644); err != nil {
		s.opts.Metrics.PersistFailed("minutes")
		return err
	}
	return nil
}
