package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spicescript/recipe-service/internal/core/domain"
)

// JSONRecipeRepository implements domain.RecipeRepository over a recipes.json
// file. Update and Delete enforce that the acting user is the author.
type JSONRecipeRepository struct {
	mu   sync.Mutex
	path string
}

// NewRecipeRepository creates a JSONRecipeRepository backed by the given file.
func NewRecipeRepository(path string) *JSONRecipeRepository {
	return &JSONRecipeRepository{path: path}
}

// Create assigns the next id, stamps timestamps, and persists the recipe.
func (r *JSONRecipeRepository) Create(ctx context.Context, rec domain.Recipe) (*domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recipes := loadCollection[domain.Recipe](r.path)

	now := time.Now().UTC()
	rec.ID = nextID(recipes, func(x domain.Recipe) int { return x.ID })
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.ImagePath == "" {
		rec.ImagePath = domain.DefaultRecipeImage
	}

	recipes = append(recipes, rec)
	if err := saveCollection(r.path, recipes); err != nil {
		return nil, fmt.Errorf("persist recipes: %w", err)
	}
	return &rec, nil
}

// FindByID returns the recipe with the given id.
func (r *JSONRecipeRepository) FindByID(ctx context.Context, id int) (*domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range loadCollection[domain.Recipe](r.path) {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("recipe %d: %w", id, domain.ErrNotFound)
}

// FindAll returns every recipe.
func (r *JSONRecipeRepository) FindAll(ctx context.Context) ([]domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return loadCollection[domain.Recipe](r.path), nil
}

// FindByAuthor returns the recipes created by the given user.
func (r *JSONRecipeRepository) FindByAuthor(ctx context.Context, authorID int) ([]domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Recipe
	for _, rec := range loadCollection[domain.Recipe](r.path) {
		if rec.AuthorID == authorID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Search returns recipes whose name or description contains the query,
// case-insensitively. An empty query matches everything.
func (r *JSONRecipeRepository) Search(ctx context.Context, query string) ([]domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := strings.ToLower(query)
	var out []domain.Recipe
	for _, rec := range loadCollection[domain.Recipe](r.path) {
		if strings.Contains(strings.ToLower(rec.RecipeName), q) ||
			strings.Contains(strings.ToLower(rec.Description), q) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Update merges the mutable fields over the stored recipe. Identity,
// ownership, and creation fields are kept from the stored record.
func (r *JSONRecipeRepository) Update(ctx context.Context, id int, upd domain.RecipeUpdate, userID int) (*domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recipes := loadCollection[domain.Recipe](r.path)
	idx := -1
	for i, rec := range recipes {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("update recipe %d: %w", id, domain.ErrNotFound)
	}
	if recipes[idx].AuthorID != userID {
		return nil, fmt.Errorf("update recipe %d by user %d: %w", id, userID, domain.ErrForbidden)
	}

	rec := recipes[idx]
	rec.RecipeName = upd.RecipeName
	rec.Description = upd.Description
	rec.Ingredients = upd.Ingredients
	rec.Directions = upd.Directions
	if upd.ImagePath != "" {
		rec.ImagePath = upd.ImagePath
	}
	rec.UpdatedAt = time.Now().UTC()

	recipes[idx] = rec
	if err := saveCollection(r.path, recipes); err != nil {
		return nil, fmt.Errorf("persist recipes: %w", err)
	}
	return &rec, nil
}

// Delete removes the recipe after the author check.
func (r *JSONRecipeRepository) Delete(ctx context.Context, id, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recipes := loadCollection[domain.Recipe](r.path)
	idx := -1
	for i, rec := range recipes {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("delete recipe %d: %w", id, domain.ErrNotFound)
	}
	if recipes[idx].AuthorID != userID {
		return fmt.Errorf("delete recipe %d by user %d: %w", id, userID, domain.ErrForbidden)
	}

	recipes = append(recipes[:idx], recipes[idx+1:]...)
	if err := saveCollection(r.path, recipes); err != nil {
		return fmt.Errorf("persist recipes: %w", err)
	}
	return nil
}
