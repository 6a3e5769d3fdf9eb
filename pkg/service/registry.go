package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/teamone/spooky-telemetry/pkg/config"
)

// Registry hands out one Service per settings object.
//
// Settings are compared by pointer: two loggers share a connection exactly
// when they hold the same *config.Settings.
type Registry struct {
	opts Options

	mu       sync.Mutex
	services map[*config.Settings]*Service
	closed   bool
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:     opts,
		services: make(map[*config.Settings]*Service),
	}
}

// Connect returns the service for settings, creating it on first use, and
// requests a connection on behalf of req. req is registered as a listener
// in the same step that decides whether it is told about the current
// session directly or about the next attempt. req may be nil to obtain the service
// without requesting a connection.
//
// Missing or invalid settings fail immediately and no service is created.
func (r *Registry) Connect(settings *config.Settings, req Requester) (*Service, error) {
	if settings == nil {
		return nil, ErrNoSettings
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}

	svc, existing := r.services[settings]
	if !existing {
		if err := settings.Validate(); err != nil {
			r.mu.Unlock()
			return nil, fmt.Errorf("settings %s: %w", settings.DisplayName(), err)
		}
		var err error
		svc, err = newService(settings, r.opts)
		if err != nil {
			r.mu.Unlock()
			return nil, fmt.Errorf("create service for %s: %w", settings.DisplayName(), err)
		}
		r.services[settings] = svc
	}
	r.mu.Unlock()

	if req == nil {
		return svc, nil
	}

	if existing {
		svc.RequestServiceFor(req)
	} else {
		svc.connectWith(req)
	}
	return svc, nil
}

// Lookup returns the service for settings, if one was created.
func (r *Registry) Lookup(settings *config.Settings) (*Service, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.services[settings]
	return svc, ok
}

// Len returns the number of live services.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.services)
}

// Close closes every service. The registry cannot be used afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	services := make([]*Service, 0, len(r.services))
	for _, svc := range r.services {
		services = append(services, svc)
	}
	r.services = make(map[*config.Settings]*Service)
	r.mu.Unlock()

	var errs []error
	for _, svc := range services {
		if err := svc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
