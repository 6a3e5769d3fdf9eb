// Command telemetry-client is an interactive host application for the
// telemetry pipeline.
//
// It creates one logger per context and sends events typed at the prompt
// to the collector named in the settings file.
//
// Usage:
//
//	telemetry-client -config game.yaml [-journal game.tlog] [-editor]
//
// Settings are read from the file and then overridden by TELEMETRY_*
// environment variables. Without -config the stock settings are used.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/teamone/spooky-telemetry/cmd/telemetry-client/interactive"
	"github.com/teamone/spooky-telemetry/pkg/config"
	"github.com/teamone/spooky-telemetry/pkg/journal"
	"github.com/teamone/spooky-telemetry/pkg/router"
	"github.com/teamone/spooky-telemetry/pkg/service"
)

var (
	configFile  string
	journalPath string
	editor      bool
	logLevel    string
	contextID   string
)

func init() {
	flag.StringVar(&configFile, "config", "", "Settings file path (YAML)")
	flag.StringVar(&journalPath, "journal", "", "Record transmission attempts to this file")
	flag.BoolVar(&editor, "editor", false, "Behave as if running inside editor tooling")
	flag.StringVar(&logLevel, "log-level", "debug", "Log level: debug, info, warn, error")
	flag.StringVar(&contextID, "context", "", "Initial context ID (random if empty)")
}

func main() {
	flag.Parse()

	settings, err := loadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}

	client, err := interactive.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(client.Stderr(), &slog.HandlerOptions{Level: level}))
	opts := service.Options{
		Editor: editor,
		Logger: logger,
	}
	if level <= slog.LevelDebug {
		// Echo every transmission attempt at the prompt.
		opts.Journal = journal.NewSlogJournal(logger)
	}
	registry := service.NewRegistry(opts)
	r := router.New(router.Config{Registry: registry, Logger: logger})

	shell := interactive.NewShell(r, settings, client.Stdout())
	client.Attach(shell)

	fmt.Fprintf(client.Stdout(), "Telemetry client: %s (networking %s, version %s)\n",
		settings.DisplayName(), settings.Networking, settings.VersionString())

	if contextID == "" {
		contextID = "main-" + uuid.NewString()[:8]
	}
	shell.Enter(router.ContextID(contextID))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client.Run(ctx, cancel)

	if err := r.Close(); err != nil {
		logger.Error("closing router", slog.String("error", err.Error()))
	}
	if err := registry.Close(); err != nil {
		logger.Error("closing services", slog.String("error", err.Error()))
	}
}

func loadSettings() (*config.Settings, error) {
	settings := config.Default()
	if configFile != "" {
		loaded, err := config.LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}
	if err := settings.ApplyEnv(); err != nil {
		return nil, err
	}
	if journalPath != "" {
		settings.JournalPath = journalPath
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
