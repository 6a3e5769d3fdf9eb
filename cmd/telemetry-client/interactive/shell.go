// Package interactive provides the interactive command-line interface
// for telemetry-client.
package interactive

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/teamone/spooky-telemetry/pkg/config"
	"github.com/teamone/spooky-telemetry/pkg/router"
)

// Shell executes client commands against a router. It plays the part of a
// host application: each context gets its own logger.
type Shell struct {
	router   *router.Router
	settings *config.Settings
	out      io.Writer
}

// NewShell creates a shell that creates loggers with settings and writes
// command output to out.
func NewShell(r *router.Router, settings *config.Settings, out io.Writer) *Shell {
	return &Shell{router: r, settings: settings, out: out}
}

// Exec runs one command line. It returns true when the user asked to quit.
func (s *Shell) Exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "help", "?":
		s.printHelp()

	case "log", "l":
		s.cmdLog(rest)

	case "section", "s":
		s.cmdSection(rest)

	case "context", "ctx", "c":
		s.cmdContext(rest)

	case "close":
		s.cmdClose()

	case "status", "st":
		s.cmdStatus()

	case "pending", "p":
		s.cmdPending()

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

// Enter makes ctx the active context, creating and waking a logger for it
// if it has none. A new logger starts in a section named after its context.
func (s *Shell) Enter(ctx router.ContextID) *router.Logger {
	s.router.SetActive(ctx)
	for _, l := range s.router.Loggers() {
		if l.Context() == ctx {
			return l
		}
	}

	l := s.router.NewLogger(ctx, string(ctx), s.settings)
	l.OnConnectionSuccess(func(index int) {
		fmt.Fprintf(s.out, "[%s] connected, session index %d\n", ctx, index)
	})
	l.OnConnectionFail(func(reason string) {
		fmt.Fprintf(s.out, "[%s] connection failed: %s\n", ctx, reason)
	})
	l.Awake()
	return l
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Telemetry Client Commands:
  Events:
    log <type> [json]  - Log an event, with an optional JSON payload
    section <name>     - Change the section of the active context

  Contexts:
    context [id]       - Switch to a context (new random id if omitted)
    close              - Close the logger of the active context
    status             - Show loggers and their services
    pending            - Show events of the active context awaiting transmission

  Other:
    help               - Show this help
    quit               - Exit`)
}

func (s *Shell) cmdLog(args string) {
	eventType, payload, _ := strings.Cut(args, " ")
	if eventType == "" {
		fmt.Fprintln(s.out, "Usage: log <type> [json]")
		return
	}

	var data any
	if payload = strings.TrimSpace(payload); payload != "" {
		if err := json.Unmarshal([]byte(payload), &data); err != nil {
			fmt.Fprintf(s.out, "Invalid JSON payload: %v\n", err)
			return
		}
	}
	s.router.Log("", eventType, data)
}

func (s *Shell) cmdSection(name string) {
	if name == "" {
		fmt.Fprintln(s.out, "Usage: section <name>")
		return
	}
	s.router.ChangeSection("", name)
}

func (s *Shell) cmdContext(id string) {
	if id == "" {
		id = "ctx-" + uuid.NewString()[:8]
	}
	l := s.Enter(router.ContextID(id))
	fmt.Fprintf(s.out, "Active context: %s (section %s)\n", id, l.Section())
}

func (s *Shell) cmdClose() {
	active := s.router.Active()
	for _, l := range s.router.Loggers() {
		if l.Context() == active {
			l.Close()
			fmt.Fprintf(s.out, "Closed logger for %s\n", active)
			return
		}
	}
	fmt.Fprintf(s.out, "No logger in context %s\n", active)
}

func (s *Shell) cmdStatus() {
	active := s.router.Active()
	loggers := s.router.Loggers()
	fmt.Fprintf(s.out, "Active context: %s\n", active)
	fmt.Fprintf(s.out, "Loggers: %d, services: %d\n", len(loggers), s.router.Registry().Len())

	for _, l := range loggers {
		marker := " "
		if l.Context() == active {
			marker = "*"
		}
		fmt.Fprintf(s.out, " %s %-16s section=%s", marker, l.Context(), l.Section())
		if svc := l.Service(); svc != nil {
			network := "on"
			if !svc.NetworkEnabled() {
				network = "off"
			}
			fmt.Fprintf(s.out, " state=%s network=%s session=%d queued=%d",
				svc.State(), network, svc.SessionIndex(), svc.QueueLen())
		} else {
			fmt.Fprint(s.out, " state=NOT CONNECTED")
		}
		fmt.Fprintln(s.out)
	}
}

func (s *Shell) cmdPending() {
	l, ok := s.router.Resolve("")
	if !ok {
		fmt.Fprintln(s.out, "No logger")
		return
	}
	svc := l.Service()
	if svc == nil {
		fmt.Fprintln(s.out, "Logger not connected")
		return
	}

	pending := svc.Pending()
	fmt.Fprintf(s.out, "%d pending event(s)\n", len(pending))
	for _, e := range pending {
		key := "keyed"
		if e.NeedsSessionKey() {
			key = "awaiting key"
		}
		fmt.Fprintf(s.out, "  #%d %-16s section=%s %s\n", e.Sequence, e.EventType, e.Section, key)
	}
}
