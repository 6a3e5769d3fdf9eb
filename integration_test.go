package telemetry_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/teamone/spooky-telemetry/pkg/config"
	"github.com/teamone/spooky-telemetry/pkg/journal"
	"github.com/teamone/spooky-telemetry/pkg/router"
	"github.com/teamone/spooky-telemetry/pkg/service"
	"github.com/teamone/spooky-telemetry/pkg/telemetry"
	"github.com/teamone/spooky-telemetry/pkg/transport"
)

// collector is an in-memory collector server.
type collector struct {
	mu      sync.Mutex
	awake   int
	auths   []transport.AuthRequest
	events  []telemetry.Event
	down    bool
	authErr bool
}

func (c *collector) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/awake", method(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.awake++
		if c.down {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	mux.HandleFunc("/connect", method(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		var req transport.AuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.auths = append(c.auths, req)
		authErr := c.authErr
		c.mu.Unlock()

		if authErr {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(transport.AuthResponse{
			SessionKey:   "key-" + req.UserName,
			SessionIndex: 7,
			Message:      "welcome",
		})
	}))
	mux.HandleFunc("/log", method(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		e, err := telemetry.Unmarshal(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.events = append(c.events, e)
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	return mux
}

// method restricts h to requests using verb, answering 405 otherwise.
func method(verb string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != verb {
			w.Header().Set("Allow", verb)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (c *collector) received() []telemetry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]telemetry.Event(nil), c.events...)
}

func (c *collector) setDown(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newPipeline(t *testing.T, srv *httptest.Server) (*router.Router, *service.Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := service.NewRegistry(service.Options{
		Logger:         logger,
		HTTPClient:     srv.Client(),
		WakeRetryDelay: 20 * time.Millisecond,
	})
	r := router.New(router.Config{Registry: reg, Logger: logger})
	t.Cleanup(func() {
		_ = r.Close()
		_ = reg.Close()
	})
	return r, reg
}

func serverSettings(srv *httptest.Server, journalPath string) *config.Settings {
	s := config.Default()
	s.Name = "e2e"
	s.ServerURL = srv.URL
	s.UserName = "spooky"
	s.Secret = "boo"
	s.Version = "1.2.0"
	s.Platform = "linux"
	s.JournalPath = journalPath
	return s
}

// TestE2E_QueuedEventsAreBackPatched logs before the collector is reachable
// and checks that every event arrives in order under the real session key.
func TestE2E_QueuedEventsAreBackPatched(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	c := &collector{down: true}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	journalPath := filepath.Join(t.TempDir(), "e2e.tlog")
	settings := serverSettings(srv, journalPath)
	r, reg := newPipeline(t, srv)

	menu := r.NewLogger("menu", "Menu", settings)
	indices := make(chan int, 1)
	menu.OnConnectionSuccess(func(index int) { indices <- index })

	r.SetActive("menu")
	r.LogEvent("", "Boot")
	r.Log("", "Click", map[string]string{"button": "start"})
	r.ChangeSection("", "Options")
	r.Log("", "Toggle", map[string]bool{"music": false})

	svc, ok := reg.Lookup(settings)
	if !ok {
		t.Fatal("service not created")
	}
	if got := svc.QueueLen(); got != 4 {
		t.Fatalf("queued %d events before the collector woke, want 4", got)
	}

	c.setDown(false)

	select {
	case index := <-indices:
		if index != 7 {
			t.Errorf("session index = %d, want 7", index)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("connection success not reported")
	}

	waitFor(t, "4 events at the collector", func() bool { return len(c.received()) == 4 })

	events := c.received()
	wantTypes := []string{"Boot", "Click", telemetry.EventTypeChangeSection, "Toggle"}
	wantSections := []string{"Menu", "Menu", "Menu", "Options"}
	for i, e := range events {
		if e.Sequence != i {
			t.Errorf("event %d: sequence = %d", i, e.Sequence)
		}
		if e.EventType != wantTypes[i] {
			t.Errorf("event %d: type = %q, want %q", i, e.EventType, wantTypes[i])
		}
		if e.Section != wantSections[i] {
			t.Errorf("event %d: section = %q, want %q", i, e.Section, wantSections[i])
		}
		if e.SessionKey != "key-spooky" {
			t.Errorf("event %d: session key = %q, want key-spooky", i, e.SessionKey)
		}
	}

	c.mu.Lock()
	auths := append([]transport.AuthRequest(nil), c.auths...)
	awake := c.awake
	c.mu.Unlock()
	if len(auths) != 1 {
		t.Fatalf("got %d auth requests, want 1", len(auths))
	}
	if auths[0].Version != "1.2.0-linux" || auths[0].Section != "Options" {
		t.Errorf("unexpected auth request: %+v", auths[0])
	}
	if awake < 2 {
		t.Errorf("awake probed %d times, want at least 2", awake)
	}

	// Every transmission is journaled.
	waitFor(t, "journal entries", func() bool { return journalLen(t, journalPath) == 4 })
	rd, err := journal.NewReader(journalPath)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer rd.Close()
	entries, err := rd.All()
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	for _, e := range entries {
		if e.Outcome != journal.OutcomeSent || e.SessionIndex != 7 || e.ServiceID != svc.ID() {
			t.Errorf("unexpected journal entry: %+v", e)
		}
	}
}

func journalLen(t *testing.T, path string) int {
	t.Helper()
	rd, err := journal.NewReader(path)
	if err != nil {
		return 0
	}
	defer rd.Close()
	entries, _ := rd.All()
	return len(entries)
}

// TestE2E_AuthFailureKeepsQueue checks that a rejected login reports the
// collector's reason and that events stay queued until a later login works.
func TestE2E_AuthFailureKeepsQueue(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	c := &collector{authErr: true}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	settings := serverSettings(srv, "")
	r, reg := newPipeline(t, srv)

	l := r.NewLogger("level1", "Hall", settings)
	reasons := make(chan string, 2)
	indices := make(chan int, 1)
	l.OnConnectionFail(func(reason string) { reasons <- reason })
	l.OnConnectionSuccess(func(index int) { indices <- index })

	l.Log("Enter", nil)

	select {
	case reason := <-reasons:
		if reason != "unknown user\n" && reason != "unknown user" {
			t.Errorf("reason = %q, want unknown user", reason)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("connection failure not reported")
	}

	svc, _ := reg.Lookup(settings)
	if got := svc.State().String(); got != "DISCONNECTED" {
		t.Errorf("state = %s, want DISCONNECTED", got)
	}
	if svc.QueueLen() != 1 || len(c.received()) != 0 {
		t.Fatalf("queue = %d, sent = %d; want 1 queued and none sent", svc.QueueLen(), len(c.received()))
	}

	c.mu.Lock()
	c.authErr = false
	c.mu.Unlock()

	// Changing section asks for service again, which retries the login.
	l.ChangeSection("Crypt")

	select {
	case <-indices:
	case <-time.After(10 * time.Second):
		t.Fatal("retry did not connect")
	}
	waitFor(t, "queued events sent", func() bool { return len(c.received()) == 2 })

	events := c.received()
	if events[0].EventType != "Enter" || events[1].EventType != telemetry.EventTypeChangeSection {
		t.Errorf("unexpected events: %+v", events)
	}
}
