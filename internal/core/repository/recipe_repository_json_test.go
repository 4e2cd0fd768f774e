package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spicescript/recipe-service/internal/core/domain"
)

func newRecipeRepo(t *testing.T) *JSONRecipeRepository {
	t.Helper()
	return NewRecipeRepository(filepath.Join(t.TempDir(), "recipes.json"))
}

func seedRecipe(t *testing.T, repo *JSONRecipeRepository) *domain.Recipe {
	t.Helper()
	rec, err := repo.Create(context.Background(), domain.Recipe{
		RecipeName:  "Soup",
		Description: "A warm soup",
		Ingredients: "water\nsalt",
		Directions:  "boil\nserve",
		AuthorID:    1,
		AuthorName:  "alice",
	})
	require.NoError(t, err)
	return rec
}

func TestRecipeCreate_DefaultsAndIDs(t *testing.T) {
	repo := newRecipeRepo(t)

	rec := seedRecipe(t, repo)
	assert.Equal(t, 1, rec.ID)
	assert.Equal(t, domain.DefaultRecipeImage, rec.ImagePath)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

	rec2, err := repo.Create(context.Background(), domain.Recipe{
		RecipeName: "Stew", AuthorID: 1, AuthorName: "alice", ImagePath: "/images/stew.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rec2.ID)
	assert.Equal(t, "/images/stew.jpg", rec2.ImagePath)
}

func TestRecipeUpdate_MutableFieldsOnly(t *testing.T) {
	repo := newRecipeRepo(t)
	rec := seedRecipe(t, repo)

	updated, err := repo.Update(context.Background(), rec.ID, domain.RecipeUpdate{
		RecipeName:  "Better Soup",
		Description: "improved",
		Ingredients: "water\nsalt\npepper",
		Directions:  "boil\nseason\nserve",
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, "Better Soup", updated.RecipeName)
	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, rec.AuthorID, updated.AuthorID)
	assert.Equal(t, rec.AuthorName, updated.AuthorName)
	assert.Equal(t, rec.CreatedAt, updated.CreatedAt)
	assert.Equal(t, rec.ImagePath, updated.ImagePath) // empty update keeps the image
	assert.True(t, updated.UpdatedAt.After(rec.UpdatedAt) || updated.UpdatedAt.Equal(rec.UpdatedAt))
}

func TestRecipeUpdate_WrongUserForbidden(t *testing.T) {
	repo := newRecipeRepo(t)
	rec := seedRecipe(t, repo)

	_, err := repo.Update(context.Background(), rec.ID, domain.RecipeUpdate{RecipeName: "Hijacked"}, 2)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Stored recipe is unchanged.
	stored, err := repo.FindByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", stored.RecipeName)
}

func TestRecipeDelete(t *testing.T) {
	repo := newRecipeRepo(t)
	rec := seedRecipe(t, repo)

	err := repo.Delete(context.Background(), rec.ID, 2)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, repo.Delete(context.Background(), rec.ID, 1))

	_, err = repo.FindByID(context.Background(), rec.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.Delete(context.Background(), rec.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecipeSearchAndFindByAuthor(t *testing.T) {
	repo := newRecipeRepo(t)
	seedRecipe(t, repo)
	_, err := repo.Create(context.Background(), domain.Recipe{
		RecipeName: "Chocolate Cake", Description: "sweet", AuthorID: 2, AuthorName: "bob",
	})
	require.NoError(t, err)

	found, err := repo.Search(context.Background(), "cake")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Chocolate Cake", found[0].RecipeName)

	byDesc, err := repo.Search(context.Background(), "WARM")
	require.NoError(t, err)
	require.Len(t, byDesc, 1)
	assert.Equal(t, "Soup", byDesc[0].RecipeName)

	byAuthor, err := repo.FindByAuthor(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "bob", byAuthor[0].AuthorName)
}
