package journal

// Journal receives one Entry per transmission attempt.
type Journal interface {
	// Record stores an entry. Implementations must be thread-safe and must
	// not block the caller for long.
	Record(entry Entry)
}

// Multi sends entries to several journals.
type Multi struct {
	journals []Journal
}

// NewMulti creates a Multi that forwards to every non-nil journal.
func NewMulti(journals ...Journal) *Multi {
	m := &Multi{}
	for _, j := range journals {
		if j != nil {
			m.journals = append(m.journals, j)
		}
	}
	return m
}

// Record forwards the entry to all configured journals.
func (m *Multi) Record(entry Entry) {
	for _, j := range m.journals {
		j.Record(entry)
	}
}

// Compile-time interface satisfaction check.
var _ Journal = (*Multi)(nil)
