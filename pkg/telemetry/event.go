// Package telemetry defines the event record sent to the collector and its
// wire form.
package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// SessionKeyPlaceholder marks events captured before the collector issued a
// session key. The service rewrites it on first transmission.
const SessionKeyPlaceholder = "#SESSION_KEY#"

// EventTypeChangeSection is the type of the synthetic section-change event.
const EventTypeChangeSection = "ChangeSection"

// Event is one telemetry record.
type Event struct {
	// SessionKey is issued by the collector, or SessionKeyPlaceholder.
	SessionKey string `json:"sessionKey"`

	// Section is the game context active when the event was produced.
	Section string `json:"section"`

	// EventType is a short category label.
	EventType string `json:"eventType"`

	// Sequence is assigned when the event is queued; -1 until then.
	Sequence int `json:"sequence"`

	// Timecode is the capture time in epoch milliseconds (UTC).
	Timecode int64 `json:"timecode"`

	// Data is the payload. Nil means no data.
	Data any `json:"data"`
}

// New creates an event stamped with the current time.
func New(eventType string, data any) Event {
	return newAt(eventType, data, time.Now())
}

func newAt(eventType string, data any, t time.Time) Event {
	return Event{
		SessionKey: SessionKeyPlaceholder,
		EventType:  eventType,
		Sequence:   -1,
		Timecode:   t.UnixMilli(),
		Data:       data,
	}
}

// NewChangeSection creates the event reported when the active section moves
// from oldSection to newSection. The event is attributed to oldSection.
func NewChangeSection(oldSection, newSection string) Event {
	e := New(EventTypeChangeSection, newSection)
	e.Section = oldSection
	return e
}

// Time returns the capture time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timecode).UTC()
}

// WithSessionKey returns a copy of e carrying key.
func (e Event) WithSessionKey(key string) Event {
	e.SessionKey = key
	return e
}

// NeedsSessionKey reports whether the event still carries the placeholder.
func (e Event) NeedsSessionKey() bool {
	return e.SessionKey == SessionKeyPlaceholder
}

// Freeze returns a copy whose payload is captured as raw JSON, so later
// changes to the caller's value no longer affect the record. Payloads that
// encode as null (nil maps, slices and pointers) become {}.
func (e Event) Freeze() (Event, error) {
	raw, ok := e.Data.(json.RawMessage)
	if !ok && e.Data != nil {
		var err error
		if raw, err = json.Marshal(e.Data); err != nil {
			return e, fmt.Errorf("encode %s payload: %w", e.EventType, err)
		}
	}
	if isNull(raw) {
		raw = emptyJSON
	}
	e.Data = raw
	return e, nil
}

// Marshal returns the wire form of the event. Absent data is sent as {}.
func Marshal(e Event) ([]byte, error) {
	frozen, err := e.Freeze()
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.EventType, err)
	}
	data, err := json.Marshal(frozen)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.EventType, err)
	}
	return data, nil
}

// emptyJSON is sent for events without data so the collector always sees an
// object in the data column.
var emptyJSON = json.RawMessage(`{}`)

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Unmarshal decodes the wire form. The payload is kept as raw JSON.
func Unmarshal(data []byte) (Event, error) {
	var wire struct {
		Event
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Event{}, err
	}
	e := wire.Event
	e.Data = nil
	if len(wire.Data) > 0 {
		e.Data = wire.Data
	}
	return e, nil
}
