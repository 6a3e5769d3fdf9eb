package connection

import (
	"context"
	"time"
)

// ProbeFunc checks whether the collector is awake.
// It should return nil once the collector answers.
type ProbeFunc func(ctx context.Context) error

// Wake probes until a probe succeeds, waiting b.Next() between attempts.
// onAttempt, if non-nil, is called before every probe with the 1-based
// attempt number. Wake only returns early when ctx is done, in which case it
// returns ctx.Err().
func Wake(ctx context.Context, probe ProbeFunc, b *Backoff, onAttempt func(attempt int)) error {
	b.Reset()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if onAttempt != nil {
			onAttempt(attempt)
		}

		if err := probe(ctx); err == nil {
			b.Reset()
			return nil
		}

		timer := time.NewTimer(b.Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
