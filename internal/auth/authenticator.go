package auth

import (
	"alcyxob/fittrack/internal/domain"
	"context"
	"errors"
	"fmt"
	"time"
)

// Credential is what a client receives after signing in.
type Credential struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// Authenticator ties tokens to the credential store.
type Authenticator struct {
	tokens *TokenIssuer
	store  CredentialStore
	ttl    time.Duration
}

func NewAuthenticator(tokens *TokenIssuer, store CredentialStore, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{tokens: tokens, store: store, ttl: ttl}
}

// TTL is the lifetime of new credentials.
func (a *Authenticator) TTL() time.Duration { return a.ttl }

// Open creates a credential session for userID.
func (a *Authenticator) Open(ctx context.Context, userID string) (*Credential, error) {
	sessionID, expiresAt, err := a.store.Create(ctx, userID, a.ttl)
	if err != nil {
		return nil, domain.Persistence("open credential session", err)
	}
	token, err := a.tokens.Issue(sessionID, userID, expiresAt)
	if err != nil {
		_ = a.store.Revoke(ctx, sessionID)
		return nil, err
	}
	return &Credential{Token: token, SessionID: sessionID, ExpiresAt: expiresAt}, nil
}

// Authenticate returns the user id behind token. Unknown, expired, revoked or
// tampered credentials wrap domain.ErrAuthenticationRequired.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrAuthenticationRequired
	}
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthenticationRequired, err)
	}
	userID, err := a.store.Lookup(ctx, claims.SessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthenticationRequired, err)
	}
	if err != nil {
		return "", domain.Persistence("lookup credential session", err)
	}
	if userID != claims.UserID {
		return "", fmt.Errorf("%w: credential user mismatch", domain.ErrAuthenticationRequired)
	}
	return userID, nil
}

// Close revokes the credential session behind token. Invalid tokens are ignored.
func (a *Authenticator) Close(ctx context.Context, token string) error {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := a.store.Revoke(ctx, claims.SessionID); err != nil {
		return domain.Persistence("revoke credential session", err)
	}
	return nil
}
