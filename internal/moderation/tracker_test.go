package moderation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/rng"
)

func TestRecordViolationStartsAtOne(t *testing.T) {
	tracker := NewTracker(rng.New(1))

	assert.Equal(t, 0, tracker.Count(42))
	assert.Equal(t, 1, tracker.RecordViolation(42))
	assert.Equal(t, 2, tracker.RecordViolation(42))
	assert.Equal(t, 1, tracker.RecordViolation(7), "counters are per user")
	assert.Equal(t, 2, tracker.Count(42))
}

func TestComputeDurationFirstOffenseFactorOne(t *testing.T) {
	// Без нарушений множитель 1: потолок равен базе.
	tracker := NewTracker(rng.Fixed{I: 1 << 30})
	got := tracker.ComputeDuration(5, 60*time.Second)
	assert.Equal(t, 60*time.Second, got)

	low := NewTracker(rng.Fixed{I: 0})
	assert.Equal(t, time.Second, low.ComputeDuration(5, 60*time.Second))
}

func TestComputeDurationCeilingScalesWithCount(t *testing.T) {
	tracker := NewTracker(rng.Fixed{I: 1 << 30})
	base := 30 * time.Second

	prev := time.Duration(0)
	for n := 1; n <= 5; n++ {
		tracker.RecordViolation(9)
		ceiling := tracker.ComputeDuration(9, base)
		require.Equal(t, time.Duration(n)*base, ceiling)
		require.GreaterOrEqual(t, ceiling, prev)
		prev = ceiling
	}
}

func TestComputeDurationWithinRange(t *testing.T) {
	tracker := NewTracker(rng.New(99))
	base := 10 * time.Second

	for i := 0; i < 3; i++ {
		tracker.RecordViolation(1)
	}
	for i := 0; i < 500; i++ {
		d := tracker.ComputeDuration(1, base)
		require.GreaterOrEqual(t, d, time.Second)
		require.LessOrEqual(t, d, 3*base)
		require.Zero(t, d%time.Second, "duration must be whole seconds")
	}
}

func TestComputeDurationSubSecondBase(t *testing.T) {
	tracker := NewTracker(rng.Fixed{I: 100})
	assert.Equal(t, time.Second, tracker.ComputeDuration(1, 0))
}

func TestRecordViolationConcurrent(t *testing.T) {
	tracker := NewTracker(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordViolation(3)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, tracker.Count(3))
}
