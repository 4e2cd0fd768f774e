package domain

import (
	"context"
	"time"
)

// Session maps an opaque token to a user with an expiry. A session is valid
// iff now < ExpiresAt and the token still exists in the store.
type Session struct {
	SessionID string    `json:"sessionId"`
	UserID    int       `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionRepository defines the data-access contract for session operations.
// Multiple concurrent sessions per user are allowed.
type SessionRepository interface {
	// Create issues a new random session for the user.
	Create(ctx context.Context, userID int) (*Session, error)

	// FindByID returns the session with the given token, or ErrNotFound.
	// An expired session is destroyed on access and reported as not found.
	FindByID(ctx context.Context, sessionID string) (*Session, error)

	// Destroy removes the session. Returns false when no session was removed.
	Destroy(ctx context.Context, sessionID string) (bool, error)

	// DestroyByUserID removes every session belonging to the user and returns
	// how many were removed.
	DestroyByUserID(ctx context.Context, userID int) (int, error)

	// Cleanup removes all expired sessions, persisting only when something
	// changed, and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
}
