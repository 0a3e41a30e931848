package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coocood/freecache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTimer struct {
	mu  sync.Mutex
	now uint32
}

func (m *manualTimer) Now() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTimer) advance(seconds uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += seconds
}

func newTestLocalStore() (*LocalStore, *manualTimer) {
	timer := &manualTimer{now: 1_000_000}
	ids := 0
	store := &LocalStore{
		cache: freecache.NewCacheCustomTimer(1024*1024, timer),
		newID: func() string {
			ids++
			return "sid-" + string(rune('0'+ids))
		},
		now: time.Now,
	}
	return store, timer
}

func TestLocalStore_CreateLookup(t *testing.T) {
	store, _ := newTestLocalStore()
	ctx := context.Background()

	sessionID, expiresAt, err := store.Create(ctx, "user-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", sessionID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	userID, err := store.Lookup(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = store.Lookup(ctx, "unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLocalStore_Expiry(t *testing.T) {
	store, timer := newTestLocalStore()
	ctx := context.Background()

	sessionID, _, err := store.Create(ctx, "user-1", time.Minute)
	require.NoError(t, err)

	timer.advance(30)
	_, err = store.Lookup(ctx, sessionID)
	require.NoError(t, err)

	timer.advance(31)
	_, err = store.Lookup(ctx, sessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLocalStore_Revoke(t *testing.T) {
	store, _ := newTestLocalStore()
	ctx := context.Background()

	first, _, err := store.Create(ctx, "user-1", time.Hour)
	require.NoError(t, err)
	second, _, err := store.Create(ctx, "user-1", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, first))
	_, err = store.Lookup(ctx, first)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Lookup(ctx, second)
	assert.NoError(t, err, "other sessions stay valid")

	assert.NoError(t, store.Revoke(ctx, first), "revoking twice is fine")
}
