package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/teamone/spooky-telemetry/pkg/journal"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output    string
	ServiceID string
	Outcome   string
	EventType string
	Section   string
	TimeStart string
	TimeEnd   string
}

// RunFilter filters the journal and writes matching entries to a new file.
// A summary line is written to w.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	filter := journal.Filter{
		ServiceID: opts.ServiceID,
		EventType: opts.EventType,
		Section:   opts.Section,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Outcome != "" {
		o, err := parseOutcome(opts.Outcome)
		if err != nil {
			return err
		}
		filter.Outcome = &o
	}

	reader, err := journal.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	out, err := journal.NewFileJournal(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output journal: %w", err)
	}

	count := 0
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = out.Close()
			return fmt.Errorf("failed to read entry: %w", err)
		}

		out.Record(entry)
		count++
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output journal: %w", err)
	}
	if err := out.Err(); err != nil {
		return fmt.Errorf("failed to write output journal: %w", err)
	}

	fmt.Fprintf(w, "Filtered %d entries to %s\n", count, opts.Output)
	return nil
}
