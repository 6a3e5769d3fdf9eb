package router

import (
	"log/slog"
	"sync"

	"github.com/teamone/spooky-telemetry/pkg/config"
	"github.com/teamone/spooky-telemetry/pkg/diag"
	"github.com/teamone/spooky-telemetry/pkg/service"
	"github.com/teamone/spooky-telemetry/pkg/telemetry"
)

// Logger logs events for one context under a section label.
// Create loggers with Router.NewLogger.
type Logger struct {
	router   *Router
	ctx      ContextID
	settings *config.Settings
	diag     *diag.Reporter

	mu        sync.Mutex
	section   string
	svc       *service.Service
	failed    bool
	closed    bool
	onSuccess []func(sessionIndex int)
	onFail    []func(reason string)
}

// Context returns the context the logger belongs to.
func (l *Logger) Context() ContextID {
	return l.ctx
}

// Settings returns the logger's settings. It may be nil.
func (l *Logger) Settings() *config.Settings {
	return l.settings
}

// Section returns the current section label.
func (l *Logger) Section() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.section
}

// Service returns the connected service, or nil before the first use.
func (l *Logger) Service() *service.Service {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.svc
}

// OnConnectionSuccess registers fn to receive the session index whenever
// the logger's service connects.
func (l *Logger) OnConnectionSuccess(fn func(sessionIndex int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onSuccess = append(l.onSuccess, fn)
}

// OnConnectionFail registers fn to receive the reason whenever a
// connection attempt fails.
func (l *Logger) OnConnectionFail(fn func(reason string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFail = append(l.onFail, fn)
}

// Awake registers the logger with its router and connects it to the
// service for its settings. It does nothing once connected.
func (l *Logger) Awake() {
	l.connect()
}

// Log queues an event with a payload under the current section.
func (l *Logger) Log(eventType string, data any) {
	svc := l.connect()
	if svc == nil {
		return
	}
	svc.Submit(l.Section(), telemetry.New(eventType, data))
}

// LogEvent queues an event without a payload.
func (l *Logger) LogEvent(eventType string) {
	l.Log(eventType, nil)
}

// ChangeSection moves the logger to a new section without changing
// context, for example when the player enters a new zone of a level.
func (l *Logger) ChangeSection(section string) {
	l.mu.Lock()
	l.section = section
	l.mu.Unlock()

	if svc := l.connect(); svc != nil {
		svc.RequestServiceFor(l)
	}
}

// Close unregisters the logger and stops its connection callbacks.
func (l *Logger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	svc := l.svc
	l.mu.Unlock()

	l.router.Unregister(l)
	if svc != nil {
		svc.RemoveListener(l)
	}
}

// ConnectionSucceeded forwards a connection success to the registered
// handlers.
func (l *Logger) ConnectionSucceeded(sessionIndex int) {
	l.mu.Lock()
	handlers := append([]func(int){}, l.onSuccess...)
	l.mu.Unlock()

	for _, fn := range handlers {
		fn(sessionIndex)
	}
}

// ConnectionFailed forwards a connection failure to the registered
// handlers.
func (l *Logger) ConnectionFailed(reason string) {
	l.mu.Lock()
	handlers := append([]func(string){}, l.onFail...)
	l.mu.Unlock()

	for _, fn := range handlers {
		fn(reason)
	}
}

// connect returns the logger's service, creating it on first use.
func (l *Logger) connect() *service.Service {
	l.mu.Lock()
	switch {
	case l.closed:
		l.mu.Unlock()
		return nil
	case l.svc != nil:
		svc := l.svc
		l.mu.Unlock()
		return svc
	case l.failed:
		l.mu.Unlock()
		l.diag.Error("telemetry logger is not connected, dropping call",
			slog.String("context", string(l.ctx)))
		return nil
	}
	l.mu.Unlock()

	l.router.Register(l)

	svc, err := l.router.registry.Connect(l.settings, l)
	if err != nil {
		l.mu.Lock()
		l.failed = true
		l.mu.Unlock()
		l.diag.Error("telemetry logger has no usable settings",
			slog.String("context", string(l.ctx)),
			slog.String("error", err.Error()))
		return nil
	}

	l.mu.Lock()
	l.svc = svc
	closed := l.closed
	l.mu.Unlock()

	// Closed while connecting.
	if closed {
		svc.RemoveListener(l)
		l.router.Unregister(l)
		return nil
	}
	return svc
}

// Compile-time interface satisfaction check.
var _ service.Requester = (*Logger)(nil)
