package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/spicescript/recipe-service/internal/cookies"
	"github.com/spicescript/recipe-service/internal/core/domain"
	"github.com/spicescript/recipe-service/internal/router"
)

// UnauthorizedError reports a failed session authentication with a
// client-facing message. The web layer maps it to a 401 envelope.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

type userKey struct{}
type sessionKey struct{}

// UserFromContext returns the authenticated user attached by Authenticator.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok
}

// SessionFromContext returns the session attached by Authenticator.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*domain.Session)
	return s, ok
}

// Authenticator resolves session cookies into users for protected routes.
type Authenticator struct {
	Sessions   domain.SessionRepository
	Users      domain.UserRepository
	CookieName string
}

// Require gates a handler behind session authentication. On success the user
// and session are attached to the request context; on any failure an
// UnauthorizedError is returned for the router's error writer to render. A
// session whose user no longer exists is destroyed on sight.
func (a *Authenticator) Require(next router.HandlerFunc) router.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()
		logger := zerolog.Ctx(ctx)

		sessionID := cookies.Parse(r.Header.Get("Cookie"))[a.CookieName]
		if sessionID == "" {
			return &UnauthorizedError{Message: "Session not found. Please sign in."}
		}

		session, err := a.Sessions.FindByID(ctx, sessionID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Error().Err(err).Msg("Session lookup failed")
			}
			return &UnauthorizedError{Message: "Session is invalid or expired. Please sign in again."}
		}

		user, err := a.Users.FindByID(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// The account is gone; drop the dangling session.
				if _, derr := a.Sessions.Destroy(ctx, sessionID); derr != nil {
					logger.Error().Err(derr).Msg("Failed to destroy dangling session")
				}
			} else {
				logger.Error().Err(err).Msg("User lookup failed")
			}
			return &UnauthorizedError{Message: "User not found. Please sign in again."}
		}

		ctx = context.WithValue(ctx, userKey{}, user)
		ctx = context.WithValue(ctx, sessionKey{}, session)
		return next(w, r.WithContext(ctx))
	}
}
