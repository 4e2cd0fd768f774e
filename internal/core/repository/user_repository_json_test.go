package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicescript/recipe-service/internal/core/domain"
)

func newUserRepo(t *testing.T) *JSONUserRepository {
	t.Helper()
	return NewUserRepository(filepath.Join(t.TempDir(), "users.json"))
}

func TestUserCreate_AssignsMonotonicIDs(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u1, err := repo.Create(ctx, "alice", "alice@example.com", "h1")
	require.NoError(t, err)
	assert.Equal(t, 1, u1.ID)

	u2, err := repo.Create(ctx, "bob", "bob@example.com", "h2")
	require.NoError(t, err)
	assert.Equal(t, 2, u2.ID)
	assert.False(t, u2.CreatedAt.IsZero())
}

func TestUserCreate_DuplicateUsernameCaseInsensitive(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", "alice@example.com", "h")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "ALICE", "other@example.com", "h")
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

	_, err = repo.Create(ctx, "alice2", "Alice@Example.COM", "h")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserFind(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "alice@example.com", "h")
	require.NoError(t, err)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byEmail, err := repo.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byName, err := repo.FindByUsername(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_MalformedFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	repo := NewUserRepository(path)

	users, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)

	u, err := repo.Create(context.Background(), "alice", "alice@example.com", "h")
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
}

func TestUserPublic_StripsPasswordHash(t *testing.T) {
	u := domain.User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: "secret"}
	pub := u.Public()
	assert.Equal(t, u.Username, pub.Username)
	assert.Equal(t, u.Email, pub.Email)
}
