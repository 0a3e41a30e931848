package workout

import (
	"alcyxob/fittrack/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan int) (int, bool) {
	t.Helper()
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for countdown")
	}
	return 0, false
}

func TestCountdown_Remaining(t *testing.T) {
	tr, _, clock := startedTracker(t)

	rest := tr.StartRest(domain.WorkoutPlanExercise{ID: "pe-1", ExerciseID: "squat", RestSeconds: 90})
	assert.Equal(t, 90, rest.Remaining())
	assert.True(t, rest.Resting())
	assert.Equal(t, "squat", rest.ExerciseID)

	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, 89, rest.Remaining())

	clock.Advance(88 * time.Second)
	assert.Equal(t, 1, rest.Remaining())

	clock.Advance(time.Second)
	assert.Equal(t, 0, rest.Remaining())
	assert.False(t, rest.Resting())

	clock.Advance(time.Minute)
	assert.Equal(t, 0, rest.Remaining(), "never negative")
}

func TestCountdown_ZeroRest(t *testing.T) {
	tr, _, _ := startedTracker(t)

	rest := tr.StartRest(domain.WorkoutPlanExercise{RestSeconds: 0})
	assert.False(t, rest.Resting())

	rest = tr.StartRest(domain.WorkoutPlanExercise{RestSeconds: -5})
	assert.Equal(t, 0, rest.Remaining())
}

func TestCountdown_LastOneWins(t *testing.T) {
	tr, _, _ := startedTracker(t)

	first := tr.StartRest(domain.WorkoutPlanExercise{ID: "pe-1", RestSeconds: 90})
	second := tr.StartRest(domain.WorkoutPlanExercise{ID: "pe-2", RestSeconds: 60})

	assert.Equal(t, 0, first.Remaining())
	assert.Equal(t, 60, second.Remaining())
	assert.Same(t, second, tr.Rest())
}

func TestCountdown_Watch(t *testing.T) {
	tr, _, clock := startedTracker(t)
	rest := tr.StartRest(domain.WorkoutPlanExercise{RestSeconds: 3})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := rest.Watch(ctx)

	v, ok := receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, 3, v)

	clock.Advance(time.Second)
	v, ok = receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	clock.Advance(2 * time.Second)
	v, ok = receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, 0, v)

	_, ok = receive(t, ch)
	assert.False(t, ok, "closed after reaching zero")
}

func TestCountdown_WatchSuperseded(t *testing.T) {
	tr, _, _ := startedTracker(t)
	first := tr.StartRest(domain.WorkoutPlanExercise{RestSeconds: 30})

	ch := first.Watch(context.Background())
	v, _ := receive(t, ch)
	assert.Equal(t, 30, v)

	tr.StartRest(domain.WorkoutPlanExercise{RestSeconds: 45})
	v, ok := receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, 0, v)
	_, ok = receive(t, ch)
	assert.False(t, ok)
}

func TestCountdown_WatchContextCancel(t *testing.T) {
	tr, _, _ := startedTracker(t)
	rest := tr.StartRest(domain.WorkoutPlanExercise{RestSeconds: 30})

	ctx, cancel := context.WithCancel(context.Background())
	ch := rest.Watch(ctx)
	v, _ := receive(t, ch)
	assert.Equal(t, 30, v)

	cancel()
	_, ok := receive(t, ch)
	assert.False(t, ok)
}

func TestCountdown_EndStopsRest(t *testing.T) {
	tr, _, _ := startedTracker(t)
	rest := tr.StartRest(domain.WorkoutPlanExercise{RestSeconds: 30})

	_, err := tr.End(context.Background(), 0, 3)
	require.NoError(t, err)
	assert.False(t, rest.Resting())
}

func TestCountdown_DiscardStopsRest(t *testing.T) {
	tr, _, _ := startedTracker(t)
	rest := tr.StartRest(domain.WorkoutPlanExercise{RestSeconds: 30})
	ch := rest.Watch(context.Background())
	v, ok := receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, 30, v)

	tr.Discard()
	v, ok = receive(t, ch)
	require.True(t, ok)
	assert.Equal(t, 0, v)
	_, ok = receive(t, ch)
	assert.False(t, ok)
	assert.Equal(t, StateActive, tr.State())
}
