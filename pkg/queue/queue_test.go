package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamone/spooky-telemetry/pkg/telemetry"
)

func TestPushAssignsSequentialNumbers(t *testing.T) {
	q := New()

	for i := 0; i < 50; i++ {
		e, _ := q.Push(telemetry.New("Step", i), i%2 == 0)
		assert.Equal(t, i, e.Sequence)
	}
	assert.Equal(t, 50, q.Len())

	e, _ := q.Push(telemetry.New("Step", 50), false)
	assert.Equal(t, 50, e.Sequence)
}

func TestPopPreservesOrder(t *testing.T) {
	q := New()
	for i := 0; i < 10; i++ {
		q.Push(telemetry.New("Step", i), false)
	}

	for i := 0; i < 10; i++ {
		e, _, ok := q.Pop("key")
		require.True(t, ok)
		assert.Equal(t, i, e.Sequence)
	}

	_, _, ok := q.Pop("key")
	assert.False(t, ok)
}

func TestSequenceNeverReused(t *testing.T) {
	q := New()
	q.Push(telemetry.New("A", nil), true)
	q.Pop("key")
	e, _ := q.Push(telemetry.New("B", nil), false)
	assert.Equal(t, 1, e.Sequence)
}

func TestPopBackPatchesPlaceholderOnce(t *testing.T) {
	q := New()
	q.Push(telemetry.New("Early1", nil), true)
	q.Push(telemetry.New("Early2", nil), true)
	late := telemetry.New("Late", nil).WithSessionKey("real")
	q.Push(late, false)

	require.Equal(t, 2, q.BeforeReady())
	for _, e := range q.Snapshot()[:2] {
		assert.Equal(t, telemetry.SessionKeyPlaceholder, e.SessionKey)
	}

	e, _, _ := q.Pop("real")
	assert.Equal(t, "real", e.SessionKey)
	assert.Equal(t, 1, q.BeforeReady())

	e, _, _ = q.Pop("real")
	assert.Equal(t, "real", e.SessionKey)
	assert.Equal(t, 0, q.BeforeReady())

	e, _, _ = q.Pop("other")
	assert.Equal(t, "real", e.SessionKey, "events queued after ready keep their key")
	assert.Equal(t, 0, q.BeforeReady())
}

func TestPushOnEmptyPopDoesNotPanic(t *testing.T) {
	q := New()
	_, p, ok := q.Pop("")
	assert.False(t, ok)
	assert.Equal(t, PressureNone, p)
}

func TestBackPressureHysteresis(t *testing.T) {
	q := New()

	var warnings []int
	for i := 0; i < 25; i++ {
		_, p := q.Push(telemetry.New("Spam", i), false)
		if p == PressureFallingBehind {
			warnings = append(warnings, q.Len())
		}
	}
	assert.Equal(t, []int{WarningThreshold + 1}, warnings)
	assert.Equal(t, 2*WarningThreshold, q.Threshold())

	var caughtUp []int
	for q.Len() > 0 {
		_, p, _ := q.Pop("")
		if p == PressureCaughtUp {
			caughtUp = append(caughtUp, q.Len())
		}
	}
	assert.Equal(t, []int{WarningThreshold/2 - 1}, caughtUp)
	assert.Equal(t, WarningThreshold, q.Threshold())
}

func TestBackPressureDoublesAgain(t *testing.T) {
	q := New()

	count := 0
	for i := 0; i < 4*WarningThreshold+1; i++ {
		if _, p := q.Push(telemetry.New("Spam", i), false); p == PressureFallingBehind {
			count++
		}
	}
	// Crossing 20, 40 and 80.
	assert.Equal(t, 3, count)
	assert.Equal(t, 8*WarningThreshold, q.Threshold())
}

func TestNoCaughtUpWithoutWarning(t *testing.T) {
	q := New()
	for i := 0; i < 5; i++ {
		q.Push(telemetry.New("Calm", i), false)
	}
	for q.Len() > 0 {
		_, p, _ := q.Pop("")
		assert.Equal(t, PressureNone, p)
	}
}

func TestPressureString(t *testing.T) {
	assert.Equal(t, "FALLING_BEHIND", PressureFallingBehind.String())
	assert.Equal(t, "CAUGHT_UP", PressureCaughtUp.String())
	assert.Equal(t, "UNKNOWN", Pressure(99).String())
}

func TestPacerSpacing(t *testing.T) {
	p := NewPacer()
	ctx := context.Background()

	var stamps []time.Time
	for i := 0; i < 4; i++ {
		require.NoError(t, p.Wait(ctx))
		stamps = append(stamps, time.Now())
	}

	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		// Allow for timer granularity.
		assert.GreaterOrEqual(t, gap, MinInterval-5*time.Millisecond, "gap %d", i)
	}
}

func TestPacerWaitHonoursContext(t *testing.T) {
	p := newPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Wait(ctx))
}
