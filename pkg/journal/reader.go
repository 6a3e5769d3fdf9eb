package journal

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for journal entries.
// Empty/nil fields match all entries for that criterion.
type Filter struct {
	// ServiceID filters by exact service ID.
	ServiceID string

	// Outcome filters by transmission outcome.
	Outcome *Outcome

	// EventType filters by exact event type.
	EventType string

	// Section filters by exact section.
	Section string

	// TimeStart filters entries at or after this time.
	TimeStart *time.Time

	// TimeEnd filters entries before this time.
	TimeEnd *time.Time
}

// Matches returns true if the entry matches all filter criteria.
func (f *Filter) Matches(entry Entry) bool {
	if f.ServiceID != "" && entry.ServiceID != f.ServiceID {
		return false
	}
	if f.Outcome != nil && entry.Outcome != *f.Outcome {
		return false
	}
	if f.EventType != "" && entry.EventType != f.EventType {
		return false
	}
	if f.Section != "" && entry.Section != f.Section {
		return false
	}
	if f.TimeStart != nil && entry.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !entry.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader streams entries from a journal file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader creates a Reader over every entry in path.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader over the entries in path matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching entry, or io.EOF at the end of the file.
func (r *Reader) Next() (Entry, error) {
	for {
		var entry Entry
		if err := r.decoder.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				return Entry{}, io.EOF
			}
			return Entry{}, err
		}
		if r.filter.Matches(entry) {
			return entry, nil
		}
	}
}

// All reads every remaining matching entry.
func (r *Reader) All() ([]Entry, error) {
	var out []Entry
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, entry)
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
