package workout

import (
	"alcyxob/fittrack/internal/domain"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetLoadsOnce(t *testing.T) {
	reg := NewRegistry(nil)
	store := newFakeStore()
	session := domain.WorkoutSession{ID: "s-1", UserID: "user-1", WorkoutPlanID: "plan-1", StartedAt: time.Now()}

	loads := 0
	load := func(context.Context) (*Tracker, error) {
		loads++
		return Restore(store, session, testSchedule(), nil), nil
	}

	first, err := reg.Get(context.Background(), "s-1", "user-1", load)
	require.NoError(t, err)
	second, err := reg.Get(context.Background(), "s-1", "user-1", load)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_GetOtherUser(t *testing.T) {
	reg := NewRegistry(nil)
	tr, _, _ := startedTracker(t)
	reg.Put(tr)

	_, err := reg.Get(context.Background(), tr.Session().ID, "intruder", func(context.Context) (*Tracker, error) {
		t.Fatal("must not load")
		return nil, nil
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_GetLoadError(t *testing.T) {
	reg := NewRegistry(nil)
	loadErr := errors.New("boom")

	_, err := reg.Get(context.Background(), "s-1", "user-1", func(context.Context) (*Tracker, error) {
		return nil, loadErr
	})
	assert.ErrorIs(t, err, loadErr)
	assert.Zero(t, reg.Len())
}

func TestRegistry_Sweep(t *testing.T) {
	clock := newFakeClock()
	reg := NewRegistry(clock.Now)
	store := newFakeStore()
	ctx := context.Background()

	idle := NewTracker(store, "user-1", "plan-1", nil, WithClock(clock.Now))
	_, err := idle.Start(ctx)
	require.NoError(t, err)
	reg.Put(idle)

	clock.Advance(2 * time.Hour)

	busy := NewTracker(store, "user-2", "plan-1", nil, WithClock(clock.Now))
	_, err = busy.Start(ctx)
	require.NoError(t, err)
	reg.Put(busy)

	done := NewTracker(store, "user-3", "plan-1", nil, WithClock(clock.Now))
	_, err = done.Start(ctx)
	require.NoError(t, err)
	_, err = done.End(ctx, 0, 0)
	require.NoError(t, err)
	reg.Put(done)

	removed := reg.Sweep(time.Hour)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, reg.Len())

	got, err := reg.Get(ctx, busy.Session().ID, "user-2", func(context.Context) (*Tracker, error) {
		t.Fatal("must not load")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Same(t, busy, got)
}

func TestRegistry_Forget(t *testing.T) {
	reg := NewRegistry(nil)
	tr, _, _ := startedTracker(t)
	reg.Put(tr)

	reg.Forget(tr.Session().ID)
	assert.Zero(t, reg.Len())
}

func TestRegistry_RunStops(t *testing.T) {
	reg := NewRegistry(nil)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond, time.Hour)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("registry sweeper did not stop")
	}
}
