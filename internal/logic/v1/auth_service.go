package v1

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spicescript/recipe-service/internal/auth"
	"github.com/spicescript/recipe-service/internal/core/domain"
	"github.com/spicescript/recipe-service/middleware"
)

// SignUpRequest is the sign-up payload.
type SignUpRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// SignInRequest is the sign-in payload. Email carries the identifier and may
// hold either an email address or a username.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService implements sign-up, sign-in and sign-out business rules. It
// depends on repository interfaces only.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	params   auth.Params
}

// NewAuthService creates an AuthService with the given dependencies.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, params auth.Params) *AuthService {
	return &AuthService{users: users, sessions: sessions, params: params}
}

// SignUp registers a new user and opens a session for it.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*domain.PublicUser, *domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.signup", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	if errs := validateSignUp(req); len(errs) > 0 {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, nil, &ValidationError{Fields: errs}
	}

	hash, err := auth.HashPassword(req.Password, s.params)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Username, req.Email, hash)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	span.AddEvent("user.registered")

	pub := user.Public()
	return &pub, session, nil
}

// SignIn authenticates by email or username and opens a session.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*domain.PublicUser, *domain.Session, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.signin", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if errs := validateSignIn(req); len(errs) > 0 {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, nil, &ValidationError{Fields: errs}
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.users.FindByUsername(ctx, req.Email)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Don't reveal whether the account exists.
			span.AddEvent("authentication.failed")
			return nil, nil, fmt.Errorf("authenticate %q: %w", req.Email, ErrInvalidCredentials)
		}
		span.RecordError(err)
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash, s.params) {
		span.AddEvent("authentication.failed")
		return nil, nil, fmt.Errorf("authenticate %q: %w", req.Email, ErrInvalidCredentials)
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(
		attribute.Int("user.id", user.ID),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")

	pub := user.Public()
	return &pub, session, nil
}

// SignOut destroys the given session. Destroying an already-gone session is
// not an error.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	ctx, span := middleware.StartSpan(ctx, "auth.signout", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if _, err := s.sessions.Destroy(ctx, sessionID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
