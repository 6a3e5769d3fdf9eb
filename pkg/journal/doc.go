// Package journal records what the telemetry service did with each event.
//
// The journal is separate from diagnostics (slog): it is a complete,
// machine-readable trace of transmission attempts, useful for checking what
// reached the collector and for keeping events when networking is disabled.
//
// # Basic Usage
//
//	// For development: journal to the console via slog
//	opts.Journal = journal.NewSlogJournal(slog.Default())
//
//	// For play-testing builds: write a binary file
//	opts.Journal, _ = journal.NewFileJournal("session.tlog")
//
//	// Both
//	opts.Journal = journal.NewMulti(
//	    journal.NewSlogJournal(slog.Default()),
//	    fileJournal,
//	)
//
// # Outcomes
//
// Every entry carries one outcome:
//   - SENT: the collector accepted the event
//   - FAILED: the request failed; the event is not retried
//   - LOCAL: networking is disabled; the event was only journaled
//
// # File Format
//
// Journal files are a stream of CBOR maps with integer keys (.tlog). The
// telemetry-log CLI views, filters and exports them.
package journal
