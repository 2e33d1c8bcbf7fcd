package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/leonardotrapani/hyprminutes/internal/deps"
	"github.com/leonardotrapani/hyprminutes/internal/session"
)

// Printer renders reports for the CLI. Colours follow the terminal behind
// the writer, so piped output is plain text.
type Printer struct {
	w io.Writer

	header  lipgloss.Style
	label   lipgloss.Style
	success lipgloss.Style
	errorS  lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
}

// NewPrinter detects the colour profile of w
func NewPrinter(w io.Writer) *Printer {
	return newPrinter(w, lipgloss.NewRenderer(w))
}

// NewPlainPrinter never emits escape sequences
func NewPlainPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.Ascii)
	return newPrinter(w, r)
}

func newPrinter(w io.Writer, r *lipgloss.Renderer) *Printer {
	return &Printer{
		w: w,

		header: r.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		label: r.NewStyle().
			Foreground(ColorText).
			Bold(true).
			Width(14),
		success: r.NewStyle().
			Foreground(ColorSuccess),
		errorS: r.NewStyle().
			Foreground(ColorError).
			Bold(true),
		warning: r.NewStyle().
			Foreground(ColorWarning),
		muted: r.NewStyle().
			Foreground(ColorMuted),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(0, 1),
	}
}

func (p *Printer) row(key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, p.label.Render(key), value)
}

// SessionSummary prints what a finalized session produced
func (p *Printer) SessionSummary(sum session.Summary) {
	rows := []string{
		p.header.Render("Meeting: " + sum.Meeting),
		"",
		p.row("Session", sum.SessionID),
		p.row("Duration", formatDuration(sum.EndedAt.Sub(sum.StartedAt))),
		p.row("Chunks", strconv.Itoa(sum.Chunks)),
		p.row("Merged", p.success.Render(strconv.Itoa(sum.Merged))),
		p.row("No speech", p.muted.Render(strconv.Itoa(sum.NoSpeech))),
	}
	if sum.Drained > 0 {
		rows = append(rows, p.row("Replayed", strconv.Itoa(sum.Drained)))
	}
	pending := strconv.Itoa(sum.Pending)
	if sum.Pending > 0 {
		pending = p.warning.Render(pending + " (run: hyprminutes flush)")
	}
	rows = append(rows, p.row("Queued", pending))
	if len(sum.Abandoned) > 0 {
		rows = append(rows, p.row("Abandoned", p.errorS.Render(joinInts(sum.Abandoned))))
	}
	rows = append(rows,
		"",
		p.row("Minutes", sum.MinutesPath),
		p.row("Transcript", p.muted.Render(sum.TranscriptPath)),
	)

	fmt.Fprintln(p.w, p.box.Render(strings.Join(rows, "\n")))
}

// FlushReport prints one line per session handled by a flush
func (p *Printer) FlushReport(results []session.FlushResult) {
	if len(results) == 0 {
		fmt.Fprintln(p.w, p.muted.Render("No queued transcripts found."))
		return
	}

	fmt.Fprintln(p.w, p.header.Render(fmt.Sprintf("Found %d session(s) with queued transcripts", len(results))))
	for _, r := range results {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, p.row("Session", r.SessionID))
		if r.Meeting != "" {
			fmt.Fprintln(p.w, p.row("Meeting", r.Meeting))
		}
		fmt.Fprintln(p.w, p.row("Queued", strconv.Itoa(r.Queued)))

		switch {
		case r.Err != nil && r.Merged == 0:
			fmt.Fprintln(p.w, p.row("Result", p.errorS.Render("✗ "+r.Err.Error())))
		case r.Remaining > 0:
			fmt.Fprintln(p.w, p.row("Result", p.warning.Render(fmt.Sprintf("merged %d, %d still queued", r.Merged, r.Remaining))))
		default:
			fmt.Fprintln(p.w, p.row("Result", p.success.Render(fmt.Sprintf("✓ merged %d", r.Merged))))
		}
		if r.MinutesPath != "" {
			fmt.Fprintln(p.w, p.row("Minutes", p.muted.Render(r.MinutesPath)))
		}
	}
}

// Status prints the fields of a daemon STATUS response
func (p *Printer) Status(st map[string]string) {
	if st["active"] != "true" {
		fmt.Fprintln(p.w, p.muted.Render("No active session."))
		return
	}
	rows := []string{
		p.header.Render("Recording: " + st["meeting"]),
		p.row("Session", st["session"]),
	}
	if started, err := time.Parse(time.RFC3339, st["started"]); err == nil {
		rows = append(rows, p.row("Running for", formatDuration(time.Since(started))))
	}
	rows = append(rows,
		p.row("Next chunk", st["next"]),
		p.row("Submitted", st["submitted"]),
		p.row("In flight", st["inflight"]),
	)
	pending := st["pending"]
	if pending != "" && pending != "0" {
		pending = p.warning.Render(pending)
	}
	rows = append(rows, p.row("Queued", pending))
	fmt.Fprintln(p.w, strings.Join(rows, "\n"))
}

// Doctor prints the installation state of external programs
func (p *Printer) Doctor(all []deps.Dependency) {
	fmt.Fprintln(p.w, p.header.Render("External programs"))
	for _, d := range all {
		var mark string
		switch {
		case d.Status.Installed:
			mark = p.success.Render("✓")
		case d.Required:
			mark = p.errorS.Render("✗")
		default:
			mark = p.warning.Render("-")
		}
		detail := d.Purpose
		if d.Status.Installed {
			detail = d.Status.Path
			if d.Status.Version != "" {
				detail += " (" + d.Status.Version + ")"
			}
		} else if !d.Required {
			detail += ", optional"
		}
		fmt.Fprintf(p.w, "%s %s %s\n", mark, p.label.Render(d.Name), p.muted.Render(detail))
	}
}

// Problem prints a single validation problem
func (p *Printer) Problem(msg string) {
	fmt.Fprintln(p.w, p.errorS.Render("✗ ")+msg)
}

// OK prints a single success line
func (p *Printer) OK(msg string) {
	fmt.Fprintln(p.w, p.success.Render("✓ ")+msg)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
