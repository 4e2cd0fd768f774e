package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/spicescript/recipe-service/internal/cookies"
	"github.com/spicescript/recipe-service/internal/core/domain"
	logicv1 "github.com/spicescript/recipe-service/internal/logic/v1"
	"github.com/spicescript/recipe-service/internal/router"
	"github.com/spicescript/recipe-service/middleware"
)

// CookieSettings configures the session cookie the handlers set and clear.
type CookieSettings struct {
	Name         string
	MaxAgeMillis int64
	Secure       bool
}

// AuthHandler groups the HTTP handlers for authentication endpoints.
// Dependencies are injected via the constructor.
type AuthHandler struct {
	auth   *logicv1.AuthService
	cookie CookieSettings
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *logicv1.AuthService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

// RegisterRoutes registers the auth endpoints.
func (h *AuthHandler) RegisterRoutes(rt *router.Router, authn *middleware.Authenticator) {
	rt.Handle(http.MethodPost, "/api/auth/signup", h.SignUp)
	rt.Handle(http.MethodPost, "/api/auth/signin", h.SignIn)
	rt.Handle(http.MethodPost, "/api/auth/signout", authn.Require(h.SignOut))
	rt.Handle(http.MethodGet, "/api/auth/me", authn.Require(h.Me))
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) error {
	var req logicv1.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, session, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}

	zerolog.Ctx(r.Context()).Info().Int("user_id", user.ID).Msg("User registered")

	h.setSessionCookie(w, session)
	return writeJSON(w, r, http.StatusCreated, Envelope{
		Success: true,
		Message: "User registered and logged in successfully",
		Data:    map[string]any{"user": user},
	})
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) error {
	var req logicv1.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, session, err := h.auth.SignIn(r.Context(), req)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	zerolog.Ctx(r.Context()).Info().Int("user_id", user.ID).Msg("User signed in")

	h.setSessionCookie(w, session)
	return writeJSON(w, r, http.StatusOK, Envelope{
		Success: true,
		Message: "Login successful",
		Data:    map[string]any{"user": user},
	})
}

// SignOut handles POST /api/auth/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) error {
	if session, ok := middleware.SessionFromContext(r.Context()); ok {
		if err := h.auth.SignOut(r.Context(), session.SessionID); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
	}

	w.Header().Set("Set-Cookie", cookies.Clear(h.cookie.Name, cookies.Options{
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: "Strict",
	}))
	return writeJSON(w, r, http.StatusOK, Envelope{
		Success: true,
		Message: "Logout successful",
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) error {
	user, _ := middleware.UserFromContext(r.Context())
	return writeJSON(w, r, http.StatusOK, Envelope{
		Success: true,
		Data:    map[string]any{"user": user.Public()},
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *domain.Session) {
	w.Header().Set("Set-Cookie", cookies.Serialize(h.cookie.Name, session.SessionID, cookies.Options{
		MaxAgeMillis: h.cookie.MaxAgeMillis,
		HasMaxAge:    true,
		Path:         "/",
		HTTPOnly:     true,
		Secure:       h.cookie.Secure,
		SameSite:     "Strict",
	}))
}

// decodeJSON parses a strict JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return nil
}
