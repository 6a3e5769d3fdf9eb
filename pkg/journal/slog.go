package journal

import (
	"context"
	"log/slog"
)

// SlogJournal writes entries to an slog.Logger at Debug level.
type SlogJournal struct {
	logger *slog.Logger
}

// NewSlogJournal creates a SlogJournal. A nil logger uses slog.Default().
func NewSlogJournal(logger *slog.Logger) *SlogJournal {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogJournal{logger: logger}
}

// Record writes the entry.
func (j *SlogJournal) Record(entry Entry) {
	attrs := []slog.Attr{
		slog.String("service_id", entry.ServiceID),
		slog.String("outcome", entry.Outcome.String()),
		slog.Int("session", entry.SessionIndex),
		slog.Int("sequence", entry.Sequence),
		slog.String("event_type", entry.EventType),
	}
	if entry.Section != "" {
		attrs = append(attrs, slog.String("section", entry.Section))
	}
	if len(entry.Data) > 0 {
		attrs = append(attrs, slog.String("data", string(entry.Data)))
	}
	if entry.Error != "" {
		attrs = append(attrs, slog.String("error", entry.Error))
	}

	j.logger.LogAttrs(context.Background(), slog.LevelDebug, "telemetry", attrs...)
}

// Compile-time interface satisfaction check.
var _ Journal = (*SlogJournal)(nil)
