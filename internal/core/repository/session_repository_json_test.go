package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicescript/recipe-service/internal/core/domain"
)

func TestSessionCreateAndFind(t *testing.T) {
	repo := NewSessionRepository(filepath.Join(t.TempDir(), "sessions.json"), time.Hour)
	ctx := context.Background()

	s, err := repo.Create(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, s.SessionID, 64)
	assert.Equal(t, 42, s.UserID)
	assert.WithinDuration(t, s.CreatedAt.Add(time.Hour), s.ExpiresAt, time.Second)

	found, err := repo.FindByID(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, s.SessionID, found.SessionID)

	_, err = repo.FindByID(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionFindByID_ExpiredIsDestroyedLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	repo := NewSessionRepository(path, -time.Minute) // already expired on creation
	ctx := context.Background()

	s, err := repo.Create(ctx, 1)
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, s.SessionID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Physically removed from the store, not just filtered.
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var stored []domain.Session
	require.NoError(t, json.Unmarshal(b, &stored))
	assert.Empty(t, stored)
}

func TestSessionDestroy(t *testing.T) {
	repo := NewSessionRepository(filepath.Join(t.TempDir(), "sessions.json"), time.Hour)
	ctx := context.Background()

	s, err := repo.Create(ctx, 1)
	require.NoError(t, err)

	removed, err := repo.Destroy(ctx, s.SessionID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Destroy(ctx, s.SessionID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSessionDestroyByUserID(t *testing.T) {
	repo := NewSessionRepository(filepath.Join(t.TempDir(), "sessions.json"), time.Hour)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1)
	require.NoError(t, err)
	_, err = repo.Create(ctx, 1)
	require.NoError(t, err)
	other, err := repo.Create(ctx, 2)
	require.NoError(t, err)

	n, err := repo.DestroyByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.FindByID(ctx, other.SessionID)
	assert.NoError(t, err)
}

func TestSessionCleanup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	ctx := context.Background()

	expired := NewSessionRepository(path, -time.Minute)
	_, err := expired.Create(ctx, 1)
	require.NoError(t, err)
	_, err = expired.Create(ctx, 2)
	require.NoError(t, err)

	live := NewSessionRepository(path, time.Hour)
	keep, err := live.Create(ctx, 3)
	require.NoError(t, err)

	n, err := live.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = live.FindByID(ctx, keep.SessionID)
	assert.NoError(t, err)

	// Nothing left to remove.
	n, err = live.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
