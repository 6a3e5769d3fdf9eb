package journal

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileJournal appends entries to a file in CBOR format.
// It is safe for concurrent use from multiple goroutines.
type FileJournal struct {
	mu      sync.Mutex
	file    *os.File
	encoder *cbor.Encoder
	closed  bool
	err     error
}

// NewFileJournal opens path for appending, creating it with permissions 0644
// if needed.
func NewFileJournal(path string) (*FileJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileJournal{
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Record appends an entry. Write errors are kept for Err and otherwise
// ignored; journaling must not disrupt the game.
func (j *FileJournal) Record(entry Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return
	}
	if err := j.encoder.Encode(entry); err != nil && j.err == nil {
		j.err = err
	}
}

// Err returns the first write error, if any.
func (j *FileJournal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Close closes the file. Later Record calls are ignored.
// It is safe to call Close multiple times.
func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}

// Compile-time interface satisfaction check.
var _ Journal = (*FileJournal)(nil)
