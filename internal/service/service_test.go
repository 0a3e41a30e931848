package service

import (
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/repository/sqldb/sqldbtest"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	return sqldbtest.NewStore(t)
}

func createUser(t *testing.T, store *repository.Store, email string) string {
	t.Helper()
	id, err := store.Users.Create(context.Background(), &domain.User{Email: email, FullName: email, PasswordHash: "not-a-real-hash"})
	require.NoError(t, err)
	return id
}

func createExercise(t *testing.T, store *repository.Store, name string) string {
	t.Helper()
	id, err := store.Exercises.Create(context.Background(), &domain.Exercise{Name: name, MuscleGroups: []string{"legs"}, Equipment: "Barbell"})
	require.NoError(t, err)
	return id
}
