// Package domain defines the service entities and the data-access contracts
// the logic layer depends on. Implementations live in internal/core/repository.
package domain

import (
	"context"
	"time"
)

// User is a registered account. PasswordHash is never serialized into API
// responses; handlers return PublicUser instead.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the client-visible projection of a User.
type PublicUser struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the password hash.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// UserRepository defines the data-access contract for user operations.
// Username and email comparisons are case-insensitive.
type UserRepository interface {
	// Create validates username/email uniqueness, assigns the next id,
	// stamps CreatedAt, and persists the user.
	// Returns ErrDuplicateUsername or ErrDuplicateEmail on conflict.
	Create(ctx context.Context, username, email, passwordHash string) (*User, error)

	// FindByID returns the user with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id int) (*User, error)

	// FindByEmail returns the user with the given email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByUsername returns the user with the given username, or ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindAll returns every user.
	FindAll(ctx context.Context) ([]User, error)
}
