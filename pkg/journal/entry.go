package journal

import (
	"encoding/json"
	"time"

	"github.com/teamone/spooky-telemetry/pkg/telemetry"
)

// Entry is one journaled transmission attempt.
// CBOR encoding uses integer keys for compactness.
type Entry struct {
	// Timestamp is when the attempt finished.
	Timestamp time.Time `cbor:"1,keyasint" json:"timestamp"`

	// ServiceID identifies the service instance (UUID).
	ServiceID string `cbor:"2,keyasint" json:"service_id"`

	// Outcome of the attempt.
	Outcome Outcome `cbor:"3,keyasint" json:"outcome"`

	// SessionIndex is the collector session the event was sent under.
	SessionIndex int `cbor:"4,keyasint" json:"session_index"`

	// Sequence, EventType, Section and Timecode mirror the event.
	Sequence  int    `cbor:"5,keyasint" json:"sequence"`
	EventType string `cbor:"6,keyasint" json:"event_type"`
	Section   string `cbor:"7,keyasint,omitempty" json:"section,omitempty"`
	Timecode  int64  `cbor:"8,keyasint" json:"timecode"`

	// Data is the event payload as JSON.
	Data json.RawMessage `cbor:"9,keyasint,omitempty" json:"data,omitempty"`

	// Error is the failure text for FAILED entries.
	Error string `cbor:"10,keyasint,omitempty" json:"error,omitempty"`
}

// NewEntry builds an entry for a transmission attempt of e.
func NewEntry(serviceID string, sessionIndex int, e telemetry.Event, outcome Outcome, err error) Entry {
	entry := Entry{
		Timestamp:    time.Now(),
		ServiceID:    serviceID,
		Outcome:      outcome,
		SessionIndex: sessionIndex,
		Sequence:     e.Sequence,
		EventType:    e.EventType,
		Section:      e.Section,
		Timecode:     e.Timecode,
	}
	if frozen, ferr := e.Freeze(); ferr == nil {
		if raw, ok := frozen.Data.(json.RawMessage); ok {
			entry.Data = raw
		}
	}
	if err != nil {
		entry.Error = err.Error()
	}
	return entry
}

// EventTime returns the capture time of the journaled event.
func (e Entry) EventTime() time.Time {
	return time.UnixMilli(e.Timecode).UTC()
}

// Outcome is the result of a transmission attempt.
type Outcome uint8

const (
	// OutcomeSent indicates the collector accepted the event.
	OutcomeSent Outcome = 0
	// OutcomeFailed indicates the request failed.
	OutcomeFailed Outcome = 1
	// OutcomeLocal indicates networking is disabled.
	OutcomeLocal Outcome = 2
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "SENT"
	case OutcomeFailed:
		return "FAILED"
	case OutcomeLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler for JSON export.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
