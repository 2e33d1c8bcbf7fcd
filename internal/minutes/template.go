package minutes

import (
	"strings"
	"time"
)

// Placeholders understood by the minutes template.
const (
	PlaceholderDate      = "{date}"
	PlaceholderMeeting   = "{meeting_name}"
	PlaceholderStartTime = "{start_time}"
	PlaceholderEndTime   = "{end_time}"
)

// DefaultTemplate seeds a new minutes document.
const DefaultTemplate = `# Meeting Minutes

**Date:** {date}
**Meeting:** {meeting_name}
**Started:** {start_time}
**Ended:** {end_time}

## Attendees
- (To be filled based on transcript)

## Agenda Items

## Discussion Summary

## Action Items

## Next Steps
`

// Seed fills every placeholder except {end_time}, which stays until the
// session is finalized.
func Seed(tmpl, meeting string, startedAt time.Time) string {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	return strings.NewReplacer(
		PlaceholderDate, startedAt.Format("2006-01-02"),
		PlaceholderMeeting, meeting,
		PlaceholderStartTime, startedAt.Format("15:04:05"),
	).Replace(tmpl)
}

// StampEnd substitutes the end time placeholder and nothing else.
func StampEnd(doc string, end time.Time) string {
	return strings.ReplaceAll(doc, PlaceholderEndTime, end.Format("15:04:05"))
}
