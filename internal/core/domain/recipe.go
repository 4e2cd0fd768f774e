package domain

import (
	"context"
	"time"
)

// DefaultRecipeImage is used when a recipe is created without an image path.
const DefaultRecipeImage = "/images/default-recipe.jpg"

// Recipe is a published recipe. AuthorName is a denormalized snapshot of the
// author's username at creation time.
type Recipe struct {
	ID          int       `json:"id"`
	RecipeName  string    `json:"recipeName"`
	Description string    `json:"description"`
	Ingredients string    `json:"ingredients"`
	Directions  string    `json:"directions"`
	ImagePath   string    `json:"imagePath"`
	AuthorID    int       `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecipeUpdate carries the mutable recipe fields for an update. Identity,
// ownership, and creation fields are never taken from the client.
type RecipeUpdate struct {
	RecipeName  string
	Description string
	Ingredients string
	Directions  string
	// ImagePath is applied only when non-empty (image replacement is optional).
	ImagePath string
}

// RecipeRepository defines the data-access contract for recipe operations.
type RecipeRepository interface {
	// Create assigns the next id, stamps timestamps, applies the default
	// image path when none is given, and persists the recipe.
	Create(ctx context.Context, r Recipe) (*Recipe, error)

	// FindByID returns the recipe with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id int) (*Recipe, error)

	// FindAll returns every recipe.
	FindAll(ctx context.Context) ([]Recipe, error)

	// FindByAuthor returns the recipes created by the given user.
	FindByAuthor(ctx context.Context, authorID int) ([]Recipe, error)

	// Search returns recipes whose name or description contains the query,
	// case-insensitively.
	Search(ctx context.Context, query string) ([]Recipe, error)

	// Update merges the mutable fields over the stored recipe and refreshes
	// UpdatedAt. Returns ErrNotFound for an unknown id and ErrForbidden when
	// userID is not the recipe's author.
	Update(ctx context.Context, id int, upd RecipeUpdate, userID int) (*Recipe, error)

	// Delete removes the recipe. Returns ErrNotFound for an unknown id and
	// ErrForbidden when userID is not the recipe's author.
	Delete(ctx context.Context, id, userID int) error
}
