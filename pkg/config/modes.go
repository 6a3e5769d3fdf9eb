package config

import (
	"fmt"
	"strings"
)

// NetworkingMode controls when telemetry is sent to the collector instead of
// only being logged locally.
type NetworkingMode uint8

const (
	// NetworkingDisabled never contacts the collector.
	NetworkingDisabled NetworkingMode = iota

	// NetworkingRuntimeOnly contacts the collector except from editor tooling.
	NetworkingRuntimeOnly

	// NetworkingRuntimeAndEditor always contacts the collector.
	NetworkingRuntimeAndEditor
)

// String returns the configuration name of the mode.
func (m NetworkingMode) String() string {
	switch m {
	case NetworkingDisabled:
		return "disabled"
	case NetworkingRuntimeOnly:
		return "runtime-only"
	case NetworkingRuntimeAndEditor:
		return "runtime-and-editor"
	default:
		return "unknown"
	}
}

// Enabled reports whether network transport is used. editor is true when the
// host application runs inside development tooling.
func (m NetworkingMode) Enabled(editor bool) bool {
	switch m {
	case NetworkingRuntimeAndEditor:
		return true
	case NetworkingRuntimeOnly:
		return !editor
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m NetworkingMode) MarshalText() ([]byte, error) {
	if m > NetworkingRuntimeAndEditor {
		return nil, fmt.Errorf("invalid networking mode: %d", m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (case-insensitive).
func (m *NetworkingMode) UnmarshalText(text []byte) error {
	mode, err := ParseNetworkingMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseNetworkingMode parses a networking mode name (case-insensitive).
func ParseNetworkingMode(s string) (NetworkingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off":
		return NetworkingDisabled, nil
	case "runtime-only", "runtime":
		return NetworkingRuntimeOnly, nil
	case "runtime-and-editor", "always":
		return NetworkingRuntimeAndEditor, nil
	default:
		return 0, fmt.Errorf("invalid networking mode: %s (must be disabled, runtime-only, or runtime-and-editor)", s)
	}
}

// LoggingPolicy controls how many diagnostics the telemetry pipeline writes
// to the operational log. Lower values are more verbose.
type LoggingPolicy uint8

const (
	// LoggingAll reports every transmitted event as well as everything below.
	LoggingAll LoggingPolicy = iota

	// LoggingConnection reports connection progress, warnings and errors.
	LoggingConnection

	// LoggingWarningsAndErrors reports warnings and errors.
	LoggingWarningsAndErrors

	// LoggingErrorsOnly reports errors.
	LoggingErrorsOnly

	// LoggingNone is fully silent.
	LoggingNone
)

// String returns the configuration name of the policy.
func (p LoggingPolicy) String() string {
	switch p {
	case LoggingAll:
		return "all"
	case LoggingConnection:
		return "connection"
	case LoggingWarningsAndErrors:
		return "warnings-and-errors"
	case LoggingErrorsOnly:
		return "errors-only"
	case LoggingNone:
		return "none"
	default:
		return "unknown"
	}
}

// Allows reports whether a diagnostic of the given level passes this policy.
func (p LoggingPolicy) Allows(level LoggingPolicy) bool {
	return level < LoggingNone && p <= level
}

// MarshalText implements encoding.TextMarshaler.
func (p LoggingPolicy) MarshalText() ([]byte, error) {
	if p > LoggingNone {
		return nil, fmt.Errorf("invalid logging policy: %d", p)
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (case-insensitive).
func (p *LoggingPolicy) UnmarshalText(text []byte) error {
	policy, err := ParseLoggingPolicy(string(text))
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

// ParseLoggingPolicy parses a logging policy name (case-insensitive).
func ParseLoggingPolicy(s string) (LoggingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "debug":
		return LoggingAll, nil
	case "connection", "connection-only":
		return LoggingConnection, nil
	case "warnings-and-errors", "warn":
		return LoggingWarningsAndErrors, nil
	case "errors-only", "error":
		return LoggingErrorsOnly, nil
	case "none", "silent":
		return LoggingNone, nil
	default:
		return 0, fmt.Errorf("invalid logging policy: %s (must be all, connection, warnings-and-errors, errors-only, or none)", s)
	}
}
