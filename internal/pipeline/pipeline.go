package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/hyprminutes/internal/metrics"
	"github.com/leonardotrapani/hyprminutes/internal/minutes"
	"github.com/leonardotrapani/hyprminutes/internal/notify"
	"github.com/leonardotrapani/hyprminutes/internal/recording"
	"github.com/leonardotrapani/hyprminutes/internal/transcriber"
)

type Status string

// Chunk lifecycle. Merged, Queued and NoSpeech are terminal.
const (
	Captured     Status = "captured"
	Transcribing Status = "transcribing"
	Transcribed  Status = "transcribed"
	Merged       Status = "merged"
	Queued       Status = "queued"
	NoSpeech     Status = "no_speech"
)

const DefaultTranscriptionTimeout = 5 * time.Minute

// Outcome is the terminal result of processing one chunk.
type Outcome struct {
	Index   int
	Status  Status
	Reason  string // why the chunk was queued or produced no text
	Err     error
	Text    string
	Drained int // queued transcripts merged after this chunk
}

// TranscriptLog receives every transcript before it is merged
type TranscriptLog interface {
	Append(chunkIndex int, text string, at time.Time) error
}

// Merger is implemented by *minutes.Synthesizer
type Merger interface {
	Merge(ctx context.Context, text string, index int) minutes.Result
	DrainQueue(ctx context.Context) int
	Enqueue(text string, index int, reason string)
	PersistQueue()
	Pending() int
}

type Options struct {
	TranscriptionTimeout time.Duration
	Notifier             notify.Notifier
	Metrics              *metrics.Metrics
}

// Processor turns one chunk into a transcript and a merge attempt.
type Processor struct {
	transcriber transcriber.Adapter
	log         TranscriptLog
	merger      Merger
	opts        Options
}

func NewProcessor(t transcriber.Adapter, log TranscriptLog, merger Merger, opts Options) *Processor {
	if opts.TranscriptionTimeout <= 0 {
		opts.TranscriptionTimeout = DefaultTranscriptionTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	return &Processor{
		transcriber: t,
		log:         log,
		merger:      merger,
		opts:        opts,
	}
}

// Submit starts processing chunk in the background and returns at once.
func (p *Processor) Submit(ctx context.Context, chunk recording.Chunk) *Task {
	task := newTask(chunk)
	p.opts.Metrics.ChunkSubmitted()
	go func() {
		out := p.process(ctx, chunk, task)
		p.opts.Metrics.ChunkFinished(string(out.Status))
		task.finish(out)
	}()
	return task
}

// Process runs a chunk synchronously.
func (p *Processor) Process(ctx context.Context, chunk recording.Chunk) Outcome {
	return p.process(ctx, chunk, newTask(chunk))
}

func (p *Processor) process(ctx context.Context, chunk recording.Chunk, task *Task) (out Outcome) {
	out.Index = chunk.Index
	var text string

	// a fault anywhere below must not escape into the capture loop
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("panic processing chunk %d: %v", chunk.Index, r)
		log.Printf("Processor: %v", err)
		p.opts.Notifier.Error(err.Error())

		out = Outcome{Index: chunk.Index, Status: Queued, Reason: "internal error", Err: err, Text: text}
		if text == "" {
			out.Status = NoSpeech
			return
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Processor: chunk %d could not be queued after fault: %v", chunk.Index, r)
				}
			}()
			p.merger.Enqueue(text, chunk.Index, "internal error")
		}()
	}()

	task.setStatus(Transcribing)
	result, err := p.transcribe(ctx, chunk)
	if err != nil {
		log.Printf("Processor: chunk %d transcription failed: %v", chunk.Index, err)
		if transcriber.IsFatalTranscriptionError(err) {
			p.opts.Notifier.Error(err.Error())
		}
		out.Status = NoSpeech
		out.Reason = "transcription failed"
		out.Err = err
		return out
	}

	text = strings.TrimSpace(result.Text)
	if text == "" {
		log.Printf("Processor: no speech in chunk %d", chunk.Index)
		out.Status = NoSpeech
		out.Reason = "no speech"
		return out
	}
	out.Text = text
	task.setStatus(Transcribed)

	logged := result.Timestamped(chunk.StartedAt)
	if strings.TrimSpace(logged) == "" {
		logged = text
	}
	if err := p.log.Append(chunk.Index, logged, chunk.StartedAt); err != nil {
		log.Printf("Processor: could not save raw transcript for chunk %d: %v", chunk.Index, err)
		p.opts.Metrics.PersistFailed("transcript")
	}

	res := p.merger.Merge(ctx, text, chunk.Index)
	p.merger.PersistQueue()

	if res.Outcome != minutes.Merged {
		out.Status = Queued
		out.Reason = res.Reason
		out.Err = res.Err
		return out
	}

	out.Status = Merged
	if p.merger.Pending() > 0 {
		out.Drained = p.merger.DrainQueue(ctx)
	}
	return out
}

func (p *Processor) transcribe(ctx context.Context, chunk recording.Chunk) (*transcriber.Result, error) {
	if p.transcriber == nil {
		return nil, fmt.Errorf("no transcriber configured")
	}
	tctx, cancel := context.WithTimeout(ctx, p.opts.TranscriptionTimeout)
	defer cancel()

	start := time.Now()
	result, err := p.transcriber.Transcribe(tctx, chunk.Path)
	p.opts.Metrics.ObserveTranscription(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &transcriber.Result{}, nil
	}
	return result, nil
}

// Task is a handle on one chunk being processed in the background.
type Task struct {
	Chunk recording.Chunk

	mu      sync.Mutex
	status  Status
	outcome Outcome
	done    chan struct{}
}

func newTask(chunk recording.Chunk) *Task {
	return &Task{
		Chunk:  chunk,
		status: Captured,
		done:   make(chan struct{}),
	}
}

// Done is closed once the task reaches a terminal status
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Outcome returns the result and true once the task has finished
func (t *Task) Outcome() (Outcome, bool) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait blocks until the task finishes or ctx ends
func (t *Task) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		out, _ := t.Outcome()
		return out, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (t *Task) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

func (t *Task) finish(out Outcome) {
	t.mu.Lock()
	t.status = out.Status
	t.outcome = out
	t.mu.Unlock()
	close(t.done)
}
