package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/hyprminutes/internal/deps"
	"github.com/leonardotrapani/hyprminutes/internal/session"
)

func TestSessionSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	p.SessionSummary(session.Summary{
		SessionID:      "20260101_090000",
		Meeting:        "Board",
		StartedAt:      start,
		EndedAt:        start.Add(90 * time.Minute),
		Chunks:         18,
		Merged:         15,
		NoSpeech:       1,
		Pending:        2,
		Abandoned:      []int{16, 17},
		MinutesPath:    "/data/minutes/20260101_090000_Board.md",
		TranscriptPath: "/data/transcripts/20260101_090000_raw.txt",
	})

	out := buf.String()
	for _, want := range []string{
		"Meeting: Board",
		"20260101_090000",
		"1h30m0s",
		"18",
		"hyprminutes flush",
		"16, 17",
		"20260101_090000_Board.md",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain printer emitted escape sequences")
	}
}

func TestFlushReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.FlushReport(nil)
	if !strings.Contains(buf.String(), "No queued transcripts") {
		t.Errorf("empty report = %q", buf.String())
	}

	buf.Reset()
	p.FlushReport([]session.FlushResult{
		{SessionID: "s1", Meeting: "Board", Queued: 3, Merged: 3},
		{SessionID: "s2", Queued: 1, Remaining: 1, Err: errors.New("still queued: rate limited")},
	})
	out := buf.String()
	for _, want := range []string{"Found 2 session(s)", "merged 3", "still queued: rate limited", "Board"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestStatus(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Status(map[string]string{"active": "false"})
	if !strings.Contains(buf.String(), "No active session") {
		t.Errorf("inactive status = %q", buf.String())
	}

	buf.Reset()
	p.Status(map[string]string{
		"active":    "true",
		"meeting":   "Standup",
		"session":   "20260101_090000",
		"started":   time.Now().Add(-time.Minute).Format(time.RFC3339),
		"next":      "4",
		"submitted": "4",
		"inflight":  "1",
		"pending":   "2",
	})
	out := buf.String()
	for _, want := range []string{"Recording: Standup", "Running for", "In flight", "Queued"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}

func TestDoctor(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Doctor([]deps.Dependency{
		{Name: "pw-record", Purpose: "microphone capture", Required: true, Status: deps.Status{Installed: true, Path: "/usr/bin/pw-record", Version: "1.2"}},
		{Name: "whisper-cli", Purpose: "local transcription", Required: true},
		{Name: "notify-send", Purpose: "desktop notifications"},
	})
	out := buf.String()
	for _, want := range []string{"✓ pw-record", "/usr/bin/pw-record (1.2)", "✗ whisper-cli", "- notify-send", "optional"} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor missing %q:\n%s", want, out)
		}
	}
}
