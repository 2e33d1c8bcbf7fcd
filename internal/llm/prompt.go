package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt is sent with every merge request
const SystemPrompt = `You are a meeting minutes assistant. You keep a single markdown minutes document up to date as a meeting progresses. You only ever answer with the complete document.`

// MergeRequest is everything the model sees for one merge.
type MergeRequest struct {
	Style      string // reference minutes whose tone and layout to imitate
	Agenda     string
	Document   string // current minutes
	Transcript string
	ChunkIndex int // -1 for a batch of queued transcripts
}

// ChunkLabel names the transcript in the prompt.
func ChunkLabel(index int) string {
	if index < 0 {
		return "queued batch"
	}
	return fmt.Sprintf("Chunk %d", index)
}

// BuildMergePrompt renders the user prompt for a merge.
func BuildMergePrompt(req MergeRequest) string {
	var b strings.Builder

	b.WriteString("Update the existing meeting minutes with new information from the latest transcript segment.\n\n")

	if style := strings.TrimSpace(req.Style); style != "" {
		b.WriteString("STYLE REFERENCE (match its tone and layout, not its content):\n")
		b.WriteString(style)
		b.WriteString("\n\n")
	}

	if agenda := strings.TrimSpace(req.Agenda); agenda != "" {
		b.WriteString("AGENDA:\n")
		b.WriteString(agenda)
		b.WriteString("\n\n")
	}

	b.WriteString("CURRENT MINUTES:\n")
	b.WriteString(req.Document)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "NEW TRANSCRIPT SEGMENT (%s):\n", ChunkLabel(req.ChunkIndex))
	b.WriteString(req.Transcript)
	b.WriteString("\n\n")

	b.WriteString(`INSTRUCTIONS:
1. Incorporate any new discussion points, decisions, or action items from the transcript
2. Add any newly mentioned attendees
3. Keep the existing structure and format, including any {placeholders} still in it
4. Don't remove existing content, only add or refine
5. If the transcript is unclear or contains small talk, you can skip it
6. Return the complete updated minutes document
`)
	if req.ChunkIndex < 0 {
		b.WriteString("7. The transcript holds several queued chunks, each headed [Chunk N]; treat them in that order\n")
	}
	b.WriteString("\nReturn ONLY the updated minutes markdown, no explanations.")

	return b.String()
}
