// Command telemetry-log is a tool for viewing and analyzing telemetry journal files.
//
// Journal files are written by the telemetry client when a journal path is
// configured (the journal_path setting or the -journal flag of
// telemetry-client). Every transmission attempt is recorded with its outcome.
//
// Usage:
//
//	telemetry-log <command> [flags] <file.tlog>
//
// Commands:
//
//	view     View journal in human-readable format
//	export   Export journal to JSON or CSV format
//	filter   Filter journal and write to new file
//	stats    Show statistics about the journal
//
// Examples:
//
//	# View all entries
//	telemetry-log view game.tlog
//
//	# View only failed transmissions
//	telemetry-log view -outcome failed game.tlog
//
//	# Export to CSV
//	telemetry-log export -format csv -o game.csv game.tlog
//
//	# Keep one section's events in a new file
//	telemetry-log filter -section Level1 -o level1.tlog game.tlog
//
//	# Show statistics
//	telemetry-log stats game.tlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/teamone/spooky-telemetry/cmd/telemetry-log/commands"
)

const usage = `telemetry-log - Telemetry Journal Analyzer

Usage:
  telemetry-log <command> [flags] <file.tlog>

Commands:
  view     View journal in human-readable format
  export   Export journal to JSON or CSV format
  filter   Filter journal and write to new file
  stats    Show statistics about the journal

Use "telemetry-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// journalPath returns the single positional argument or exits.
func journalPath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: journal file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `telemetry-log view - View journal in human-readable format

Usage:
  telemetry-log view [flags] <file.tlog>

Flags:
`)
		fs.PrintDefaults()
	}

	serviceID := fs.String("service", "", "Filter by service ID")
	outcome := fs.String("outcome", "", "Filter by outcome (sent, failed, local)")
	eventType := fs.String("event-type", "", "Filter by event type")
	section := fs.String("section", "", "Filter by section")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := journalPath(fs)

	filter := commands.ViewFilter{
		ServiceID: *serviceID,
		EventType: *eventType,
		Section:   *section,
	}
	if *outcome != "" {
		o, err := commands.ParseOutcomeFlag(*outcome)
		if err != nil {
			fail(err)
		}
		filter.Outcome = &o
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `telemetry-log export - Export journal to JSON or CSV format

Usage:
  telemetry-log export [flags] <file.tlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := journalPath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `telemetry-log filter - Filter journal and write to new file

Usage:
  telemetry-log filter [flags] <file.tlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	serviceID := fs.String("service", "", "Filter by service ID")
	outcome := fs.String("outcome", "", "Filter by outcome (sent, failed, local)")
	eventType := fs.String("event-type", "", "Filter by event type")
	section := fs.String("section", "", "Filter by section")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := journalPath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		ServiceID: *serviceID,
		Outcome:   *outcome,
		EventType: *eventType,
		Section:   *section,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
	}

	if err := commands.RunFilter(path, opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `telemetry-log stats - Show statistics about the journal

Usage:
  telemetry-log stats <file.tlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := journalPath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
