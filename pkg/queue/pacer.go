package queue

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// MinInterval is the minimum spacing between two transmissions.
const MinInterval = time.Second / MaxLogsPerSecond

// Pacer spaces transmissions at least MinInterval apart.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer running at MaxLogsPerSecond.
func NewPacer() *Pacer {
	return newPacer(MinInterval)
}

func newPacer(interval time.Duration) *Pacer {
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next transmission slot, or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Mark consumes a slot without waiting, so the next Wait is spaced from now.
// Used when a request other than an event transmission hits the collector.
func (p *Pacer) Mark() {
	p.limiter.ReserveN(time.Now(), 1)
}
