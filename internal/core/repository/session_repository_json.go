package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spicescript/recipe-service/internal/auth"
	"github.com/spicescript/recipe-service/internal/core/domain"
)

// JSONSessionRepository implements domain.SessionRepository over a
// sessions.json file. Expired sessions are destroyed lazily on lookup and in
// bulk by Cleanup; both paths share the collection mutex with request-driven
// reads and writes.
type JSONSessionRepository struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration
}

// NewSessionRepository creates a JSONSessionRepository backed by the given
// file, issuing sessions with the given lifetime.
func NewSessionRepository(path string, ttl time.Duration) *JSONSessionRepository {
	return &JSONSessionRepository{path: path, ttl: ttl}
}

// Create issues a new random 256-bit session for the user.
func (r *JSONSessionRepository) Create(ctx context.Context, userID int) (*domain.Session, error) {
	id, err := auth.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	session := domain.Session{
		SessionID: id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	sessions := loadCollection[domain.Session](r.path)
	sessions = append(sessions, session)
	if err := saveCollection(r.path, sessions); err != nil {
		return nil, fmt.Errorf("persist sessions: %w", err)
	}
	return &session, nil
}

// FindByID returns the session with the given token. An expired session is
// removed from the store and reported as not found.
func (r *JSONSessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := loadCollection[domain.Session](r.path)
	for i, s := range sessions {
		if s.SessionID != sessionID {
			continue
		}
		if !time.Now().Before(s.ExpiresAt) {
			sessions = append(sessions[:i], sessions[i+1:]...)
			if err := saveCollection(r.path, sessions); err != nil {
				return nil, fmt.Errorf("persist sessions: %w", err)
			}
			return nil, fmt.Errorf("session expired at %v: %w", s.ExpiresAt, domain.ErrNotFound)
		}
		return &s, nil
	}
	return nil, fmt.Errorf("session: %w", domain.ErrNotFound)
}

// Destroy removes the session and reports whether one was removed.
func (r *JSONSessionRepository) Destroy(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := loadCollection[domain.Session](r.path)
	kept := sessions[:0]
	for _, s := range sessions {
		if s.SessionID != sessionID {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(sessions) {
		return false, nil
	}
	if err := saveCollection(r.path, kept); err != nil {
		return false, fmt.Errorf("persist sessions: %w", err)
	}
	return true, nil
}

// DestroyByUserID removes every session belonging to the user.
func (r *JSONSessionRepository) DestroyByUserID(ctx context.Context, userID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := loadCollection[domain.Session](r.path)
	kept := sessions[:0]
	for _, s := range sessions {
		if s.UserID != userID {
			kept = append(kept, s)
		}
	}
	removed := len(sessions) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := saveCollection(r.path, kept); err != nil {
		return 0, fmt.Errorf("persist sessions: %w", err)
	}
	return removed, nil
}

// Cleanup removes all expired sessions, persisting only when something
// changed.
func (r *JSONSessionRepository) Cleanup(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	sessions := loadCollection[domain.Session](r.path)
	kept := sessions[:0]
	for _, s := range sessions {
		if now.Before(s.ExpiresAt) {
			kept = append(kept, s)
		}
	}
	removed := len(sessions) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := saveCollection(r.path, kept); err != nil {
		return 0, fmt.Errorf("persist sessions: %w", err)
	}
	return removed, nil
}
