// Package config holds the telemetry settings shared by every logger that
// reports to the same collector.
//
// Settings are normally loaded from a YAML file and then overridden from the
// environment:
//
//	settings, err := config.LoadFile("telemetry.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := settings.ApplyEnv(); err != nil {
//	    return err
//	}
//
// A *Settings value is also the identity key for the transport service: two
// loggers pointing at the same *Settings share one connection and one queue.
//
// # Networking Modes
//
//   - disabled: never contact the collector, events are only journaled locally
//   - runtime-only: contact the collector except when running inside editor tooling
//   - runtime-and-editor: always contact the collector
//
// # Logging Policies
//
// The policy decides which diagnostics reach the operational log. Each level
// includes everything to its right:
//
//	all > connection > warnings-and-errors > errors-only > none
package config
