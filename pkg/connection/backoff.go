package connection

import (
	"sync"
	"time"
)

// WakeRetryDelay is the default delay between wake probes.
const WakeRetryDelay = 1 * time.Second

// Backoff hands out the delay between wake probes and counts the attempts.
// The delay is fixed: a sleeping collector is probed at a steady rate for as
// long as it takes to start. It is safe for concurrent use.
type Backoff struct {
	mu       sync.Mutex
	delay    time.Duration
	attempts int
}

// NewFixedBackoff creates a backoff that always waits d.
// A non-positive d uses WakeRetryDelay.
func NewFixedBackoff(d time.Duration) *Backoff {
	if d <= 0 {
		d = WakeRetryDelay
	}
	return &Backoff{delay: d}
}

// Next returns the delay before the next attempt and counts the attempt.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts++
	return b.delay
}

// Reset clears the attempt count.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Delay returns the delay between attempts.
func (b *Backoff) Delay() time.Duration {
	return b.delay
}
