// Package commands implements the telemetry-log CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/teamone/spooky-telemetry/pkg/journal"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// ViewFilter specifies criteria for filtering entries in the view command.
type ViewFilter struct {
	ServiceID string
	Outcome   *journal.Outcome
	EventType string
	Section   string
}

func (f ViewFilter) journalFilter() journal.Filter {
	return journal.Filter{
		ServiceID: f.ServiceID,
		Outcome:   f.Outcome,
		EventType: f.EventType,
		Section:   f.Section,
	}
}

// formatEntry writes a human-readable representation of the entry to w.
func formatEntry(w io.Writer, entry journal.Entry) {
	// Header line: timestamp [svc:id] OUTCOME #sequence EventType
	ts := entry.Timestamp.UTC().Format(timestampLayout)
	fmt.Fprintf(w, "%s [svc:%s] %-6s #%d %s\n",
		ts, shortenID(entry.ServiceID), entry.Outcome.String(), entry.Sequence, entry.EventType)

	if entry.Section != "" {
		fmt.Fprintf(w, "  Section: %s\n", entry.Section)
	}
	fmt.Fprintf(w, "  Session: %d\n", entry.SessionIndex)
	fmt.Fprintf(w, "  Captured: %s (%s earlier)\n",
		entry.EventTime().Format(timestampLayout),
		formatDuration(entry.Timestamp.Sub(entry.EventTime())))
	if len(entry.Data) > 0 && string(entry.Data) != "{}" {
		fmt.Fprintf(w, "  Data: %s\n", string(entry.Data))
	}
	if entry.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", entry.Error)
	}

	fmt.Fprintln(w) // Blank line between entries
}

// shortenID returns the first 8 characters of a service ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseOutcomeFlag parses an outcome string from a command-line flag
// (case-insensitive).
func ParseOutcomeFlag(s string) (journal.Outcome, error) {
	return parseOutcome(s)
}

func parseOutcome(s string) (journal.Outcome, error) {
	switch strings.ToLower(s) {
	case "sent":
		return journal.OutcomeSent, nil
	case "failed":
		return journal.OutcomeFailed, nil
	case "local":
		return journal.OutcomeLocal, nil
	default:
		return 0, fmt.Errorf("invalid outcome: %s (must be sent, failed, or local)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := journal.NewFilteredReader(path, filter.journalFilter())
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read entry: %w", err)
		}
		formatEntry(output, entry)
	}

	return nil
}
