package router

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/teamone/spooky-telemetry/pkg/config"
	"github.com/teamone/spooky-telemetry/pkg/diag"
	"github.com/teamone/spooky-telemetry/pkg/service"
)

// ContextID identifies a host context such as a scene. The empty ID means
// "the active context".
type ContextID string

// Finder looks up a logger the host created for ctx but the router does not
// know about yet. It returns nil if there is none.
type Finder func(ctx ContextID) *Logger

// Config configures a Router.
type Config struct {
	// Registry provides services to loggers. If nil, the router creates
	// and owns one with default options.
	Registry *service.Registry

	// Logger receives router diagnostics (default: slog.Default()).
	Logger *slog.Logger

	// Finder is consulted when no logger is known for a context.
	Finder Finder
}

// Router maps contexts to loggers.
type Router struct {
	registry     *service.Registry
	ownsRegistry bool
	logger       *slog.Logger
	diag         *diag.Reporter
	finder       Finder

	mu     sync.Mutex
	active ContextID
	cache  map[ContextID]*Logger
	live   []*Logger
}

// New creates a router.
func New(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		registry: cfg.Registry,
		logger:   logger,
		diag:     diag.New(logger, config.LoggingErrorsOnly),
		finder:   cfg.Finder,
		cache:    make(map[ContextID]*Logger),
	}
	if r.registry == nil {
		r.registry = service.NewRegistry(service.Options{Logger: logger})
		r.ownsRegistry = true
	}
	return r
}

// Registry returns the service registry used by the router's loggers.
func (r *Router) Registry() *service.Registry {
	return r.registry
}

// NewLogger creates a logger for ctx and registers it. The logger connects
// on Awake or on its first use, so connection handlers registered before
// that see the first attempt.
func (r *Router) NewLogger(ctx ContextID, section string, settings *config.Settings) *Logger {
	policy := config.LoggingErrorsOnly
	if settings != nil {
		policy = settings.Logging
	}
	l := &Logger{
		router:   r,
		ctx:      ctx,
		settings: settings,
		section:  section,
		diag:     diag.New(r.logger, policy).With(slog.String("context", string(ctx))),
	}
	r.Register(l)
	return l
}

// SetActive sets the context used for calls with an empty ContextID.
func (r *Router) SetActive(ctx ContextID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = ctx
}

// Active returns the active context.
func (r *Router) Active() ContextID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Register makes l the cached logger for its context unless another
// logger already holds that place, which is reported as a warning.
// Registering a live logger again has no effect.
func (r *Router) Register(l *Logger) {
	r.mu.Lock()
	if slices.Contains(r.live, l) {
		r.mu.Unlock()
		return
	}
	r.live = append(r.live, l)
	cached, ok := r.cache[l.ctx]
	if !ok {
		r.cache[l.ctx] = l
	}
	r.mu.Unlock()

	if ok && cached != l {
		l.diag.Warn("two telemetry loggers in one context, events may go through the wrong one")
	}
}

// Unregister forgets l. The context's cache entry is removed only if l is
// the cached logger.
func (r *Router) Unregister(l *Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.live = slices.DeleteFunc(r.live, func(x *Logger) bool { return x == l })
	if r.cache[l.ctx] == l {
		delete(r.cache, l.ctx)
	}
}

// Loggers returns the live loggers in registration order.
func (r *Router) Loggers() []*Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.live)
}

// Resolve returns the logger to use for events from ctx. ok is false only
// when no logger exists anywhere.
func (r *Router) Resolve(ctx ContextID) (l *Logger, ok bool) {
	r.mu.Lock()
	if ctx == "" {
		ctx = r.active
	}
	if cached, found := r.cache[ctx]; found {
		r.mu.Unlock()
		return cached, true
	}
	l = r.findLocked(ctx)
	r.mu.Unlock()

	if l == nil && r.finder != nil {
		l = r.finder(ctx)
	}

	if l == nil {
		r.mu.Lock()
		l = r.fallbackLocked(ctx)
		r.mu.Unlock()
	}

	if l == nil {
		r.diag.Error("logging telemetry with no logger available",
			slog.String("context", string(ctx)))
		return nil, false
	}

	if l.ctx != ctx {
		l.diag.Warn("no telemetry logger in context, redirecting to a logger from another context; reported sections may be misleading",
			slog.String("requested_context", string(ctx)))
	}
	return l, true
}

// Log logs an event with a payload through the logger for ctx.
func (r *Router) Log(ctx ContextID, eventType string, data any) {
	if l, ok := r.Resolve(ctx); ok {
		l.Log(eventType, data)
	}
}

// LogEvent logs an event without a payload through the logger for ctx.
func (r *Router) LogEvent(ctx ContextID, eventType string) {
	r.Log(ctx, eventType, nil)
}

// ChangeSection moves the logger for ctx to a new section.
func (r *Router) ChangeSection(ctx ContextID, section string) {
	if l, ok := r.Resolve(ctx); ok {
		l.ChangeSection(section)
	}
}

// Close closes every live logger and, if the router created it, the
// service registry.
func (r *Router) Close() error {
	for _, l := range r.Loggers() {
		l.Close()
	}
	if r.ownsRegistry {
		return r.registry.Close()
	}
	return nil
}

// findLocked returns a live logger created in ctx.
func (r *Router) findLocked(ctx ContextID) *Logger {
	for _, l := range r.live {
		if l.ctx == ctx {
			return l
		}
	}
	return nil
}

// fallbackLocked returns the earliest registered logger cached for a
// context other than ctx.
func (r *Router) fallbackLocked(ctx ContextID) *Logger {
	for _, l := range r.live {
		if l.ctx != ctx && r.cache[l.ctx] == l {
			return l
		}
	}
	return nil
}
