package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spicescript/recipe-service/internal/core/domain"
)

// JSONUserRepository implements domain.UserRepository over a users.json file.
type JSONUserRepository struct {
	mu   sync.Mutex
	path string
}

// NewUserRepository creates a JSONUserRepository backed by the given file.
func NewUserRepository(path string) *JSONUserRepository {
	return &JSONUserRepository{path: path}
}

// Create validates username/email uniqueness (case-insensitive), assigns the
// next id, and persists the new user.
func (r *JSONUserRepository) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := loadCollection[domain.User](r.path)
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return nil, fmt.Errorf("create user %q: %w", username, domain.ErrDuplicateUsername)
		}
		if strings.EqualFold(u.Email, email) {
			return nil, fmt.Errorf("create user %q: %w", username, domain.ErrDuplicateEmail)
		}
	}

	user := domain.User{
		ID:           nextID(users, func(u domain.User) int { return u.ID }),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	users = append(users, user)
	if err := saveCollection(r.path, users); err != nil {
		return nil, fmt.Errorf("persist users: %w", err)
	}
	return &user, nil
}

// FindByID returns the user with the given id.
func (r *JSONUserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range loadCollection[domain.User](r.path) {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
}

// FindByEmail returns the user with the given email, case-insensitively.
func (r *JSONUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range loadCollection[domain.User](r.path) {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", email, domain.ErrNotFound)
}

// FindByUsername returns the user with the given username, case-insensitively.
func (r *JSONUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range loadCollection[domain.User](r.path) {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

// FindAll returns every user.
func (r *JSONUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return loadCollection[domain.User](r.path), nil
}

// nextID returns max(id)+1, or 1 for an empty collection.
func nextID[T any](items []T, id func(T) int) int {
	max := 0
	for _, it := range items {
		if v := id(it); v > max {
			max = v
		}
	}
	return max + 1
}
