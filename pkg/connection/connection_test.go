package connection

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("FixedDelay", func(t *testing.T) {
		b := NewFixedBackoff(WakeRetryDelay)

		for i := 0; i < 5; i++ {
			if got := b.Next(); got != WakeRetryDelay {
				t.Errorf("Attempt %d: got %v, want %v", i, got, WakeRetryDelay)
			}
		}
		if b.Attempts() != 5 {
			t.Errorf("Attempts() = %d, want 5", b.Attempts())
		}
	})

	t.Run("FixedDefaultsToWakeRetryDelay", func(t *testing.T) {
		b := NewFixedBackoff(0)
		if b.Delay() != WakeRetryDelay {
			t.Errorf("Delay() = %v, want %v", b.Delay(), WakeRetryDelay)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewFixedBackoff(10 * time.Millisecond)
		for i := 0; i < 3; i++ {
			b.Next()
		}
		b.Reset()
		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
		if got := b.Next(); got != 10*time.Millisecond {
			t.Errorf("Next() = %v after reset, want 10ms", got)
		}
	})
}

func TestWake(t *testing.T) {
	t.Run("SucceedsAfterFailures", func(t *testing.T) {
		var probes atomic.Int32
		probe := func(ctx context.Context) error {
			if probes.Add(1) < 3 {
				return errors.New("asleep")
			}
			return nil
		}

		var attempts []int
		start := time.Now()
		err := Wake(context.Background(), probe, NewFixedBackoff(20*time.Millisecond), func(n int) {
			attempts = append(attempts, n)
		})
		elapsed := time.Since(start)

		if err != nil {
			t.Fatalf("Wake() error = %v", err)
		}
		if probes.Load() != 3 {
			t.Errorf("probe called %d times, want 3", probes.Load())
		}
		if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
			t.Errorf("attempts = %v, want [1 2 3]", attempts)
		}
		if elapsed < 40*time.Millisecond {
			t.Errorf("elapsed = %v, want at least two retry delays", elapsed)
		}
	})

	t.Run("ImmediateSuccess", func(t *testing.T) {
		err := Wake(context.Background(), func(context.Context) error { return nil }, NewFixedBackoff(time.Hour), nil)
		if err != nil {
			t.Fatalf("Wake() error = %v", err)
		}
	})

	t.Run("StopsOnCancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var probes atomic.Int32
		probe := func(context.Context) error {
			if probes.Add(1) == 2 {
				cancel()
			}
			return errors.New("asleep")
		}

		err := Wake(ctx, probe, NewFixedBackoff(5*time.Millisecond), nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Wake() error = %v, want context.Canceled", err)
		}
	})
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "UNINITIALIZED"},
		{StateWaking, "WAKING"},
		{StateAuthenticating, "AUTHENTICATING"},
		{StateReady, "READY"},
		{StateDisconnected, "DISCONNECTED"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
