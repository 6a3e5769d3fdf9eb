package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teamone/spooky-telemetry/pkg/config"
	"github.com/teamone/spooky-telemetry/pkg/connection"
	"github.com/teamone/spooky-telemetry/pkg/diag"
	"github.com/teamone/spooky-telemetry/pkg/journal"
	"github.com/teamone/spooky-telemetry/pkg/queue"
	"github.com/teamone/spooky-telemetry/pkg/telemetry"
	"github.com/teamone/spooky-telemetry/pkg/transport"
)

// Service errors.
var (
	ErrNoSettings = errors.New("no telemetry settings assigned")
	ErrClosed     = errors.New("service closed")
)

// Offline session indices are drawn from [offlineIndexMin, offlineIndexMax)
// so they can never collide with an index issued by the collector.
const (
	offlineIndexMin = -100
	offlineIndexMax = -10
)

// Options configures the services created by a Registry.
type Options struct {
	// Editor reports that the host runs inside an editor. Networking is off
	// in the editor under config.NetworkingRuntimeOnly.
	Editor bool

	// Logger receives diagnostics (default: slog.Default()).
	Logger *slog.Logger

	// Journal records every transmission attempt. Settings with a
	// JournalPath additionally get a file journal.
	Journal journal.Journal

	// HTTPClient is used by the default collector client.
	HTTPClient *http.Client

	// NewCollector builds the collector client for a settings object.
	// If nil, a transport.Client on the settings URLs is used.
	NewCollector func(settings *config.Settings) transport.Collector

	// WakeRetryDelay is the pause between wake probes (default: 1s).
	WakeRetryDelay time.Duration
}

func (o Options) collectorFor(settings *config.Settings) transport.Collector {
	if o.NewCollector != nil {
		return o.NewCollector(settings)
	}
	return transport.NewClient(transport.ClientConfig{
		WakeURL:    settings.WakeUpURL(),
		ConnectURL: settings.ConnectURL(),
		LogURL:     settings.LogURL(),
		HTTPClient: o.HTTPClient,
	})
}

// Service queues, authenticates and transmits events for one settings object.
type Service struct {
	id        string
	settings  *config.Settings
	network   bool
	collector transport.Collector
	journal   journal.Journal
	diag      *diag.Reporter
	queue     *queue.Queue
	pacer     *queue.Pacer
	backoff   *connection.Backoff
	files     []*journal.FileJournal

	mu            sync.Mutex
	state         connection.State
	sessionKey    string
	sessionIndex  int
	lastSection   string
	busy          bool
	closed        bool
	listeners     []Listener
	stateHandlers []func(old, new connection.State)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newService(settings *config.Settings, opts Options) (*Service, error) {
	s := &Service{
		id:           uuid.NewString(),
		settings:     settings,
		network:      settings.Networking.Enabled(opts.Editor),
		queue:        queue.New(),
		pacer:        queue.NewPacer(),
		backoff:      connection.NewFixedBackoff(opts.WakeRetryDelay),
		state:        connection.StateUninitialized,
		sessionIndex: -1,
	}

	journals := []journal.Journal{opts.Journal}
	if settings.JournalPath != "" {
		fj, err := journal.NewFileJournal(settings.JournalPath)
		if err != nil {
			return nil, err
		}
		journals = append(journals, fj)
		s.files = append(s.files, fj)
	}
	s.journal = journal.NewMulti(journals...)

	if s.network {
		s.collector = opts.collectorFor(settings)
	}

	s.diag = diag.New(opts.Logger, settings.Logging).With(
		slog.String("settings", settings.DisplayName()),
		slog.String("service_id", s.id),
	)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	networking := "disabled"
	if s.network {
		networking = "enabled"
	}
	s.diag.Connection("loaded telemetry settings", slog.String("networking", networking))
	return s, nil
}

// ID identifies this service instance in journals and diagnostics.
func (s *Service) ID() string {
	return s.id
}

// Settings returns the settings the service was created for.
func (s *Service) Settings() *config.Settings {
	return s.settings
}

// NetworkEnabled reports whether events are sent to the collector.
func (s *Service) NetworkEnabled() bool {
	return s.network
}

// State returns the connection state.
func (s *Service) State() connection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionIndex returns the session index, or -1 before READY.
func (s *Service) SessionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionIndex
}

// SessionKey returns the session key, or "" before READY.
func (s *Service) SessionKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionKey
}

// LastSection returns the section of the most recent request or event.
func (s *Service) LastSection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSection
}

// QueueLen returns the number of events awaiting transmission.
func (s *Service) QueueLen() int {
	return s.queue.Len()
}

// Pending returns a copy of the events awaiting transmission.
func (s *Service) Pending() []telemetry.Event {
	return s.queue.Snapshot()
}

// AddListener registers l for connection outcomes. Adding the same
// listener twice has no effect.
func (s *Service) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addListenerLocked(l)
}

func (s *Service) addListenerLocked(l Listener) {
	for _, existing := range s.listeners {
		if existing == l {
			return
		}
	}
	s.listeners = append(s.listeners, l)
}

// RemoveListener unregisters l.
func (s *Service) RemoveListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.listeners {
		if existing == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// OnStateChange registers a handler called after every state transition.
func (s *Service) OnStateChange(fn func(old, new connection.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateHandlers = append(s.stateHandlers, fn)
}

// Submit queues e under section. It never blocks on the network and never
// fails; problems are reported through diagnostics.
func (s *Service) Submit(section string, e telemetry.Event) {
	frozen, err := e.Freeze()
	if err != nil {
		s.diag.Error("dropping telemetry event",
			slog.String("event_type", e.EventType),
			slog.String("error", err.Error()))
		return
	}
	frozen.Section = section

	s.mu.Lock()
	defer s.mu.Unlock()

	s.trackSectionLocked(section)
	s.enqueueLocked(frozen)
	s.drainLocked()
}

// RequestServiceFor asks for a connection on behalf of r and registers r
// for later connection outcomes. A READY service reports success to r
// immediately. Otherwise a connection attempt starts unless one is already
// running. r hears about each attempt at most once.
func (s *Service) RequestServiceFor(r Requester) {
	s.mu.Lock()
	s.trackSectionLocked(r.Section())

	if s.state.IsReady() {
		index := s.sessionIndex
		s.drainLocked()
		s.addListenerLocked(r)
		s.mu.Unlock()
		r.ConnectionSucceeded(index)
		return
	}

	s.addListenerLocked(r)
	s.spawnLocked()
	s.mu.Unlock()
}

// connectWith starts the first connection attempt of a new service.
func (s *Service) connectWith(r Requester) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSection = r.Section()
	s.addListenerLocked(r)
	s.spawnLocked()
}

// Close stops the worker and releases the journal. Queued events are
// discarded. A journal file that failed to record is reported and its
// error returned.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	var errs []error
	for _, f := range s.files {
		if err := f.Err(); err != nil {
			s.diag.Error("telemetry journal write failed",
				slog.String("path", s.settings.JournalPath),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("journal %s: %w", s.settings.JournalPath, err))
		}
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) trackSectionLocked(section string) {
	if section == s.lastSection {
		return
	}
	change, err := telemetry.NewChangeSection(s.lastSection, section).Freeze()
	if err == nil {
		s.enqueueLocked(change)
	}
	s.lastSection = section
}

func (s *Service) enqueueLocked(e telemetry.Event) {
	ready := s.state.IsReady()
	if ready {
		e.SessionKey = s.sessionKey
	} else {
		e.SessionKey = telemetry.SessionKeyPlaceholder
	}

	queued, pressure := s.queue.Push(e, !ready)
	s.diag.Event("queued telemetry event",
		slog.Int("sequence", queued.Sequence),
		slog.String("event_type", queued.EventType),
		slog.String("section", queued.Section))

	if pressure == queue.PressureFallingBehind {
		s.diag.Warn("logging telemetry faster than the rate limit",
			slog.Int("queued", s.queue.Len()),
			slog.Int("next_warning_at", s.queue.Threshold()))
	}
}

// drainLocked starts the worker if the service is READY with events queued.
func (s *Service) drainLocked() {
	if s.state.IsReady() && s.queue.Len() > 0 {
		s.spawnLocked()
	}
}

// spawnLocked starts the worker unless one is already running.
func (s *Service) spawnLocked() {
	if s.busy || s.closed {
		return
	}
	s.busy = true
	s.wg.Add(1)
	go s.run()
}

func (s *Service) run() {
	defer s.wg.Done()

	if !s.State().IsReady() && !s.connect(s.ctx) {
		return
	}
	s.drain(s.ctx)
}

// connect walks the state machine up to READY. It returns false if the
// attempt failed or the service was closed; the busy flag is already
// cleared in that case.
func (s *Service) connect(ctx context.Context) bool {
	if !s.network {
		index := offlineIndexMin + rand.Intn(offlineIndexMax-offlineIndexMin)
		s.diag.Connection("telemetry networking disabled, logging locally",
			slog.Int("session_index", index))
		s.becomeReady("", index)
		return true
	}

	s.setState(connection.StateWaking)
	err := connection.Wake(ctx, s.collector.Awake, s.backoff, func(attempt int) {
		s.diag.Connection("attempting to wake telemetry server", slog.Int("attempt", attempt))
	})
	if err != nil {
		s.idle()
		return false
	}

	s.setState(connection.StateAuthenticating)
	s.diag.Connection("telemetry server is awake, authenticating",
		slog.String("user", s.settings.UserName))

	s.pacer.Mark()
	resp, err := s.collector.Connect(ctx, transport.AuthRequest{
		UserName: s.settings.UserName,
		Secret:   s.settings.Secret,
		Version:  s.settings.VersionString(),
		Section:  s.LastSection(),
	})
	if err != nil {
		if ctx.Err() != nil {
			s.idle()
			return false
		}
		reason := transport.Reason(err)
		s.diag.Error("failed to authenticate with telemetry server", slog.String("reason", reason))
		s.fail(reason)
		return false
	}

	s.diag.Connection("authenticated with telemetry server",
		slog.Int("session_index", resp.SessionIndex),
		slog.Int("awaiting_key", s.queue.BeforeReady()),
		slog.String("message", resp.Message))
	s.becomeReady(resp.SessionKey, resp.SessionIndex)
	return true
}

func (s *Service) drain(ctx context.Context) {
	for {
		s.mu.Lock()
		if s.closed || s.queue.Len() == 0 {
			s.busy = false
			s.mu.Unlock()
			return
		}
		key, index := s.sessionKey, s.sessionIndex
		s.mu.Unlock()

		if err := s.pacer.Wait(ctx); err != nil {
			s.idle()
			return
		}

		e, pressure, ok := s.queue.Pop(key)
		if !ok {
			continue
		}
		if pressure == queue.PressureCaughtUp {
			s.diag.Notice("telemetry queue draining, logging has caught up")
		}
		s.transmit(ctx, index, e)
	}
}

func (s *Service) transmit(ctx context.Context, index int, e telemetry.Event) {
	body, err := telemetry.Marshal(e)
	if err != nil {
		s.diag.Error("failed to encode telemetry event",
			slog.Int("sequence", e.Sequence),
			slog.String("error", err.Error()))
		s.journal.Record(journal.NewEntry(s.id, index, e, journal.OutcomeFailed, err))
		return
	}

	if s.diag.Enabled(config.LoggingAll) {
		s.diag.Event("logging event", slog.String("event", string(body)))
	}

	if !s.network {
		s.journal.Record(journal.NewEntry(s.id, index, e, journal.OutcomeLocal, nil))
		return
	}

	if err := s.collector.Log(ctx, body); err != nil {
		s.diag.Error("failed to log event",
			slog.String("reason", transport.Reason(err)),
			slog.String("event", string(body)))
		s.journal.Record(journal.NewEntry(s.id, index, e, journal.OutcomeFailed, err))
		return
	}
	s.journal.Record(journal.NewEntry(s.id, index, e, journal.OutcomeSent, nil))
}

func (s *Service) idle() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Service) setState(to connection.State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	handlers := append([]func(old, new connection.State){}, s.stateHandlers...)
	s.mu.Unlock()

	for _, h := range handlers {
		h(from, to)
	}
}

func (s *Service) becomeReady(key string, index int) {
	s.mu.Lock()
	from := s.state
	s.state = connection.StateReady
	s.sessionKey = key
	s.sessionIndex = index
	handlers := append([]func(old, new connection.State){}, s.stateHandlers...)
	listeners := append([]Listener{}, s.listeners...)
	s.mu.Unlock()

	for _, h := range handlers {
		h(from, connection.StateReady)
	}
	for _, l := range listeners {
		l.ConnectionSucceeded(index)
	}
}

// fail moves to DISCONNECTED and releases the worker before notifying, so a
// listener may immediately request another attempt.
func (s *Service) fail(reason string) {
	s.mu.Lock()
	from := s.state
	s.state = connection.StateDisconnected
	s.busy = false
	handlers := append([]func(old, new connection.State){}, s.stateHandlers...)
	listeners := append([]Listener{}, s.listeners...)
	s.mu.Unlock()

	for _, h := range handlers {
		h(from, connection.StateDisconnected)
	}
	for _, l := range listeners {
		l.ConnectionFailed(reason)
	}
}
