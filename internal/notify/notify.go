package notify

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"time"
)

const appName = "Hyprminutes"

// sendTimeout bounds a notify-send call when the notification daemon hangs.
const sendTimeout = 5 * time.Second

// Notifier is the user-visible side channel for session events.
type Notifier interface {
	RecordingStarted(meeting string)
	RecordingEnded(meeting string)
	ChunkQueued(index int, reason string)
	QueueDrained(count int)
	Error(msg string)
	Notify(title, message string)
}

// New returns the notifier named by the config value "desktop", "log" or "none".
func New(kind string) (Notifier, error) {
	switch kind {
	case "", "desktop":
		return Desktop{}, nil
	case "log":
		return Log{}, nil
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown notification type: %s", kind)
	}
}

func chunkLabel(index int) string {
	if index < 0 {
		return "Queued batch"
	}
	return fmt.Sprintf("Chunk %d", index)
}

type Desktop struct{}

func (d Desktop) RecordingStarted(meeting string) {
	d.Notify(appName+": Recording Started", meeting)
}

func (d Desktop) RecordingEnded(meeting string) {
	d.Notify(appName+": Recording Ended", meeting)
}

func (d Desktop) ChunkQueued(index int, reason string) {
	d.Notify(appName+": Minutes Deferred", fmt.Sprintf("%s queued (%s)", chunkLabel(index), reason))
}

func (d Desktop) QueueDrained(count int) {
	d.Notify(appName, fmt.Sprintf("Processed %d queued transcripts", count))
}

func (Desktop) Error(msg string) {
	if err := send("-u", "critical", appName+" Error", msg); err != nil {
		log.Printf("Failed to send error notification: %v", err)
	}
}

func (Desktop) Notify(title, message string) {
	if err := send(title, message); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
}

func send(args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return exec.CommandContext(ctx, "notify-send", append([]string{"-a", appName}, args...)...).Run()
}

// Log writes notifications to the standard logger, for headless hosts.
type Log struct{}

func (l Log) RecordingStarted(meeting string) {
	l.Notify(appName, "Recording Started: "+meeting)
}

func (l Log) RecordingEnded(meeting string) {
	l.Notify(appName, "Recording Ended: "+meeting)
}

func (l Log) ChunkQueued(index int, reason string) {
	l.Notify(appName, fmt.Sprintf("%s queued (%s)", chunkLabel(index), reason))
}

func (l Log) QueueDrained(count int) {
	l.Notify(appName, fmt.Sprintf("Processed %d queued transcripts", count))
}

func (Log) Error(msg string) {
	log.Printf("%s Error: %s", appName, msg)
}

func (Log) Notify(title, message string) {
	log.Printf("%s: %s", title, message)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) RecordingStarted(string) {}
func (Nop) RecordingEnded(string)   {}
func (Nop) ChunkQueued(int, string) {}
func (Nop) QueueDrained(int)        {}
func (Nop) Error(string)            {}
func (Nop) Notify(string, string)   {}
