package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/teamone/spooky-telemetry/pkg/journal"
)

// Stats holds aggregate statistics about a journal.
type Stats struct {
	TotalEntries     int
	EntriesByOutcome map[journal.Outcome]int
	EntriesByType    map[string]int
	EntriesBySection map[string]int
	Services         map[string]*ServiceStats
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// ServiceStats holds statistics for a single service instance.
type ServiceStats struct {
	FirstSeen    time.Time
	LastSeen     time.Time
	Entries      int
	Failures     int
	SessionIndex int
	LastSequence int
	MaxLatency   time.Duration
}

// RunStats analyzes the journal and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := journal.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EntriesByOutcome: make(map[journal.Outcome]int),
		EntriesByType:    make(map[string]int),
		EntriesBySection: make(map[string]int),
		Services:         make(map[string]*ServiceStats),
	}

	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read entry: %w", err)
		}

		stats.TotalEntries++
		stats.EntriesByOutcome[entry.Outcome]++
		stats.EntriesByType[entry.EventType]++
		stats.EntriesBySection[entry.Section]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || entry.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = entry.Timestamp
		}
		if entry.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = entry.Timestamp
		}

		// Track service stats
		svc, ok := stats.Services[entry.ServiceID]
		if !ok {
			svc = &ServiceStats{
				FirstSeen:    entry.Timestamp,
				LastSeen:     entry.Timestamp,
				SessionIndex: entry.SessionIndex,
			}
			stats.Services[entry.ServiceID] = svc
		}
		svc.Entries++
		if entry.Timestamp.After(svc.LastSeen) {
			svc.LastSeen = entry.Timestamp
		}
		if entry.Sequence > svc.LastSequence {
			svc.LastSequence = entry.Sequence
		}
		if entry.Outcome == journal.OutcomeFailed {
			svc.Failures++
		}
		if latency := entry.Timestamp.Sub(entry.EventTime()); latency > svc.MaxLatency {
			svc.MaxLatency = latency
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Telemetry Journal Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEntries > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Entries: %d\n", stats.TotalEntries)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Entries by Outcome:")
	for _, o := range []journal.Outcome{journal.OutcomeSent, journal.OutcomeFailed, journal.OutcomeLocal} {
		if count := stats.EntriesByOutcome[o]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", o.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Entries by Event Type:")
	printCounts(w, stats.EntriesByType)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Entries by Section:")
	printCounts(w, stats.EntriesBySection)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Services: %d\n", len(stats.Services))
	if len(stats.Services) == 0 {
		return
	}

	// Sort by first seen time
	type serviceInfo struct {
		id    string
		stats *ServiceStats
	}
	services := make([]serviceInfo, 0, len(stats.Services))
	for id, ss := range stats.Services {
		services = append(services, serviceInfo{id, ss})
	}
	sort.Slice(services, func(i, j int) bool {
		return services[i].stats.FirstSeen.Before(services[j].stats.FirstSeen)
	})

	fmt.Fprintln(w)
	for _, s := range services {
		duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
		fmt.Fprintf(w, "  [%s] %d entries, duration %s\n", shortenID(s.id), s.stats.Entries, duration)
		fmt.Fprintf(w, "           Session: %d, last sequence %d\n", s.stats.SessionIndex, s.stats.LastSequence)
		fmt.Fprintf(w, "           Max latency: %s\n", formatDuration(s.stats.MaxLatency))
		if s.stats.Failures > 0 {
			fmt.Fprintf(w, "           Failures: %d\n", s.stats.Failures)
		}
	}
}

// printCounts prints counts sorted by descending count, then name.
func printCounts(w io.Writer, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		label := name
		if label == "" {
			label = "(none)"
		}
		fmt.Fprintf(w, "  %-20s %d\n", label+":", counts[name])
	}
}
