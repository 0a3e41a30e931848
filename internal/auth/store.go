// Package auth issues and validates session credentials. A credential is a
// signed token carrying an opaque session id; the session id is kept in a
// CredentialStore with a TTL and revoked on sign-out.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("credential session not found or expired")
	ErrInvalidToken    = errors.New("invalid credential token")
)

// CredentialStore keeps session id → user id with an expiry.
type CredentialStore interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (sessionID string, expiresAt time.Time, err error)
	// Lookup returns ErrSessionNotFound for unknown, expired or revoked ids.
	Lookup(ctx context.Context, sessionID string) (userID string, err error)
	Revoke(ctx context.Context, sessionID string) error
}

const sessionKeyPrefix = "fittrack::session::"

func newSessionID() string {
	return uuid.NewString()
}
