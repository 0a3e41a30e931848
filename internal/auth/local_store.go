package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/coocood/freecache"
)

// LocalStore keeps credentials in process memory. Use it only when a single
// server instance runs; credentials are lost on restart.
type LocalStore struct {
	cache *freecache.Cache
	newID func() string
	now   func() time.Time
}

// NewLocalStore allocates a cache of sizeBytes (freecache enforces 512KB minimum).
func NewLocalStore(sizeBytes int) *LocalStore {
	return &LocalStore{
		cache: freecache.NewCache(sizeBytes),
		newID: newSessionID,
		now:   time.Now,
	}
}

func (s *LocalStore) Create(_ context.Context, userID string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("credential ttl must be positive, got %s", ttl)
	}
	// freecache expiry has second granularity
	seconds := int(math.Ceil(ttl.Seconds()))

	sessionID := s.newID()
	if err := s.cache.Set([]byte(sessionKeyPrefix+sessionID), []byte(userID), seconds); err != nil {
		return "", time.Time{}, fmt.Errorf("store credential: %w", err)
	}
	return sessionID, s.now().Add(ttl), nil
}

func (s *LocalStore) Lookup(_ context.Context, sessionID string) (string, error) {
	userID, err := s.cache.Get([]byte(sessionKeyPrefix + sessionID))
	if errors.Is(err, freecache.ErrNotFound) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup credential: %w", err)
	}
	return string(userID), nil
}

func (s *LocalStore) Revoke(_ context.Context, sessionID string) error {
	s.cache.Del([]byte(sessionKeyPrefix + sessionID))
	return nil
}
