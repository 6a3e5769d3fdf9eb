// Package queue buffers telemetry events between capture and transmission.
//
// The queue assigns sequence numbers, tracks how many entries still carry the
// session key placeholder, and reports back-pressure with hysteresis so the
// warning fires once per overload instead of once per event:
//
//	depth > threshold        -> FallingBehind, threshold doubles
//	depth < WarningThreshold/2 -> CaughtUp, threshold resets
//
// The queue is unbounded. Nothing is dropped when the collector is slow or
// unreachable.
package queue

import (
	"sync"

	"github.com/teamone/spooky-telemetry/pkg/telemetry"
)

// Rate limiting constants agreed with the collector operators.
const (
	// MaxLogsPerSecond is the highest sustained transmission rate.
	MaxLogsPerSecond = 10

	// WarningThreshold is the initial queue depth that triggers a warning.
	WarningThreshold = 2 * MaxLogsPerSecond
)

// Pressure is a back-pressure transition reported by Push or Pop.
type Pressure uint8

const (
	// PressureNone means no transition happened.
	PressureNone Pressure = iota

	// PressureFallingBehind means the queue grew past the warning threshold.
	PressureFallingBehind

	// PressureCaughtUp means a previously overloaded queue has drained.
	PressureCaughtUp
)

// String returns a human-readable pressure name.
func (p Pressure) String() string {
	switch p {
	case PressureNone:
		return "NONE"
	case PressureFallingBehind:
		return "FALLING_BEHIND"
	case PressureCaughtUp:
		return "CAUGHT_UP"
	default:
		return "UNKNOWN"
	}
}

// Queue is an ordered FIFO of pending events. It is safe for concurrent use.
type Queue struct {
	mu sync.Mutex

	entries []telemetry.Event

	nextSequence int
	beforeReady  int
	threshold    int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{threshold: WarningThreshold}
}

// Push assigns the next sequence number to e and appends it. beforeReady
// marks an event whose session key must be back-patched on transmission.
// Push never blocks.
func (q *Queue) Push(e telemetry.Event, beforeReady bool) (telemetry.Event, Pressure) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e.Sequence = q.nextSequence
	q.nextSequence++
	q.entries = append(q.entries, e)
	if beforeReady {
		q.beforeReady++
	}

	if len(q.entries) > q.threshold {
		q.threshold *= 2
		return e, PressureFallingBehind
	}
	return e, PressureNone
}

// Pop removes the oldest event. If it was queued before a session key was
// known, its placeholder is replaced with sessionKey; this happens exactly
// once per such event. ok is false when the queue is empty.
func (q *Queue) Pop(sessionKey string) (e telemetry.Event, p Pressure, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return telemetry.Event{}, PressureNone, false
	}

	e = q.entries[0]
	q.entries[0] = telemetry.Event{}
	q.entries = q.entries[1:]

	if q.beforeReady > 0 {
		if e.NeedsSessionKey() {
			e = e.WithSessionKey(sessionKey)
		}
		q.beforeReady--
	}

	if q.threshold > WarningThreshold && len(q.entries) < WarningThreshold/2 {
		q.threshold = WarningThreshold
		p = PressureCaughtUp
	}
	return e, p, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// BeforeReady returns how many queued events still await a session key.
func (q *Queue) BeforeReady() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.beforeReady
}

// Threshold returns the current warning threshold.
func (q *Queue) Threshold() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.threshold
}

// Snapshot returns a copy of the queued events in transmission order.
func (q *Queue) Snapshot() []telemetry.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]telemetry.Event, len(q.entries))
	copy(out, q.entries)
	return out
}
