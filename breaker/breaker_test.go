package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("llm", 3, time.Minute)
	assert.True(t, b.Allow())

	b.Record(false)
	b.Record(false)
	assert.Equal(t, Closed, b.Snapshot().State)

	b.Record(false)
	assert.Equal(t, Open, b.Snapshot().State)
	assert.False(t, b.Allow())
}

func TestBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	b := New("main_pipeline", 1, 10*time.Millisecond)
	b.Record(false)
	require.Equal(t, Open, b.Snapshot().State)
	assert.False(t, b.Allow())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, HalfOpen, b.Snapshot().State)
}

func TestBreaker_HalfOpenClosesOnOneSuccess(t *testing.T) {
	b := New("main_pipeline", 1, 10*time.Millisecond)
	b.Record(false)
	time.Sleep(15 * time.Millisecond)
	require.True(t, b.Allow())
	require.Equal(t, HalfOpen, b.Snapshot().State)

	b.Record(true)
	snap := b.Snapshot()
	assert.Equal(t, Closed, snap.State)
	assert.Equal(t, 0, snap.FailureCount)
}

func TestBreaker_HalfOpenReopensOnFailure(t *testing.T) {
	b := New("main_pipeline", 1, 10*time.Millisecond)
	b.Record(false)
	time.Sleep(15 * time.Millisecond)
	require.True(t, b.Allow())

	b.Record(false)
	assert.Equal(t, Open, b.Snapshot().State)
}

func TestBreaker_DefaultsAppliedForZeroValues(t *testing.T) {
	b := New("x", 0, 0)
	snap := b.Snapshot()
	assert.Equal(t, "x", snap.Name)
	for i := 0; i < 4; i++ {
		b.Record(false)
	}
	assert.Equal(t, Closed, b.Snapshot().State)
	b.Record(false)
	assert.Equal(t, Open, b.Snapshot().State)
}

func TestRegistry_GetCreatesAndReuses(t *testing.T) {
	r := NewRegistry(5, time.Minute)
	b1 := r.Get("llm")
	b2 := r.Get("llm")
	assert.Same(t, b1, b2)

	b3 := r.Get("main_pipeline")
	assert.NotSame(t, b1, b3)
	assert.Equal(t, "main_pipeline", b3.Name())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half_open", HalfOpen.String())
}
