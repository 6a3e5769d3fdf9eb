// Package diag is the diagnostic channel of the telemetry pipeline.
//
// Diagnostics are operational messages about the pipeline itself
// (connection progress, rate warnings, failed transmissions). They are
// written to a *slog.Logger and filtered by the configured
// config.LoggingPolicy, so a silent policy keeps the pipeline fully quiet
// even on permanent failure.
package diag

import (
	"context"
	"log/slog"

	"github.com/teamone/spooky-telemetry/pkg/config"
)

// Reporter writes policy-gated diagnostics.
// The zero value is not usable; create one with New.
type Reporter struct {
	logger *slog.Logger
	policy config.LoggingPolicy
}

// New creates a Reporter. A nil logger uses slog.Default().
func New(logger *slog.Logger, policy config.LoggingPolicy) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{logger: logger, policy: policy}
}

// With returns a Reporter that adds attrs to every message.
func (r *Reporter) With(attrs ...any) *Reporter {
	return &Reporter{logger: r.logger.With(attrs...), policy: r.policy}
}

// Enabled reports whether messages of the given level are written. Use it
// to skip building expensive attributes.
func (r *Reporter) Enabled(level config.LoggingPolicy) bool {
	return r.policy.Allows(level)
}

// Event reports per-event traffic. Written only under LoggingAll.
func (r *Reporter) Event(msg string, attrs ...slog.Attr) {
	r.emit(config.LoggingAll, slog.LevelDebug, msg, attrs)
}

// Connection reports connection progress.
func (r *Reporter) Connection(msg string, attrs ...slog.Attr) {
	r.emit(config.LoggingConnection, slog.LevelInfo, msg, attrs)
}

// Notice reports a non-problem that belongs with the warnings, such as a
// queue that has caught up again.
func (r *Reporter) Notice(msg string, attrs ...slog.Attr) {
	r.emit(config.LoggingWarningsAndErrors, slog.LevelInfo, msg, attrs)
}

// Warn reports a recoverable problem.
func (r *Reporter) Warn(msg string, attrs ...slog.Attr) {
	r.emit(config.LoggingWarningsAndErrors, slog.LevelWarn, msg, attrs)
}

// Error reports a failure.
func (r *Reporter) Error(msg string, attrs ...slog.Attr) {
	r.emit(config.LoggingErrorsOnly, slog.LevelError, msg, attrs)
}

func (r *Reporter) emit(gate config.LoggingPolicy, level slog.Level, msg string, attrs []slog.Attr) {
	if !r.policy.Allows(gate) {
		return
	}
	r.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
