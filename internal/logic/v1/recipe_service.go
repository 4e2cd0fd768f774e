package v1

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spicescript/recipe-service/internal/core/domain"
	"github.com/spicescript/recipe-service/internal/formdata"
	"github.com/spicescript/recipe-service/middleware"
)

// allowedImageTypes are the upload content types accepted for recipe images.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// RecipeInput carries the client-settable recipe fields.
type RecipeInput struct {
	RecipeName  string `json:"recipeName"`
	Description string `json:"description"`
	Ingredients string `json:"ingredients"`
	Directions  string `json:"directions"`
}

// RecipeService implements recipe business rules.
type RecipeService struct {
	recipes       domain.RecipeRepository
	maxImageBytes int64
}

// NewRecipeService creates a RecipeService with the given repository and
// image size limit.
func NewRecipeService(recipes domain.RecipeRepository, maxImageBytes int64) *RecipeService {
	return &RecipeService{recipes: recipes, maxImageBytes: maxImageBytes}
}

// List returns all recipes, or a filtered set when search is non-empty.
func (s *RecipeService) List(ctx context.Context, search string) ([]domain.Recipe, error) {
	ctx, span := middleware.StartSpan(ctx, "recipe.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if search != "" {
		return s.recipes.Search(ctx, search)
	}
	return s.recipes.FindAll(ctx)
}

// Get returns one recipe by id.
func (s *RecipeService) Get(ctx context.Context, id int) (*domain.Recipe, error) {
	ctx, span := middleware.StartSpan(ctx, "recipe.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("recipe.id", id),
	))
	defer span.End()

	return s.recipes.FindByID(ctx, id)
}

// Create validates the input and the already-saved image upload, then
// persists the recipe. The saved image is deleted when anything after the
// save fails, so failed requests leave no orphaned files behind.
func (s *RecipeService) Create(ctx context.Context, user *domain.User, in RecipeInput, image *formdata.File) (*domain.Recipe, error) {
	ctx, span := middleware.StartSpan(ctx, "recipe.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", user.ID),
	))
	defer span.End()

	if err := s.checkImage(image, true); err != nil {
		s.discardImage(ctx, image)
		return nil, err
	}
	if errs := validateRecipe(in); len(errs) > 0 {
		s.discardImage(ctx, image)
		return nil, &ValidationError{Fields: errs}
	}

	rec, err := s.recipes.Create(ctx, domain.Recipe{
		RecipeName:  in.RecipeName,
		Description: in.Description,
		Ingredients: in.Ingredients,
		Directions:  in.Directions,
		ImagePath:   "/images/" + image.Filename,
		AuthorID:    user.ID,
		AuthorName:  user.Username,
	})
	if err != nil {
		span.RecordError(err)
		s.discardImage(ctx, image)
		return nil, err
	}

	span.SetAttributes(attribute.Int("recipe.id", rec.ID))
	return rec, nil
}

// Update validates the input and an optional replacement image, then merges
// the mutable fields. Authorization is enforced by the store.
func (s *RecipeService) Update(ctx context.Context, user *domain.User, id int, in RecipeInput, image *formdata.File) (*domain.Recipe, error) {
	ctx, span := middleware.StartSpan(ctx, "recipe.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", user.ID),
		attribute.Int("recipe.id", id),
	))
	defer span.End()

	if err := s.checkImage(image, false); err != nil {
		s.discardImage(ctx, image)
		return nil, err
	}
	if errs := validateRecipe(in); len(errs) > 0 {
		s.discardImage(ctx, image)
		return nil, &ValidationError{Fields: errs}
	}

	upd := domain.RecipeUpdate{
		RecipeName:  in.RecipeName,
		Description: in.Description,
		Ingredients: in.Ingredients,
		Directions:  in.Directions,
	}
	if image != nil {
		upd.ImagePath = "/images/" + image.Filename
	}

	rec, err := s.recipes.Update(ctx, id, upd, user.ID)
	if err != nil {
		span.RecordError(err)
		s.discardImage(ctx, image)
		return nil, err
	}
	return rec, nil
}

// Delete removes a recipe. Authorization is enforced by the store.
func (s *RecipeService) Delete(ctx context.Context, user *domain.User, id int) error {
	ctx, span := middleware.StartSpan(ctx, "recipe.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int("user.id", user.ID),
		attribute.Int("recipe.id", id),
	))
	defer span.End()

	return s.recipes.Delete(ctx, id, user.ID)
}

// checkImage validates an uploaded image's presence, content type and size.
func (s *RecipeService) checkImage(image *formdata.File, required bool) error {
	if image == nil {
		if required {
			return fmt.Errorf("image is required: %w", ErrInvalidImage)
		}
		return nil
	}
	if !allowedImageTypes[image.ContentType] {
		return fmt.Errorf("unsupported image type %q: %w", image.ContentType, ErrInvalidImage)
	}
	if image.Size > s.maxImageBytes {
		return fmt.Errorf("image of %d bytes exceeds limit of %d: %w", image.Size, s.maxImageBytes, ErrInvalidImage)
	}
	return nil
}

// discardImage removes an already-saved upload as compensation. Best-effort;
// a failed delete is logged, never propagated.
func (s *RecipeService) discardImage(ctx context.Context, image *formdata.File) {
	if image == nil {
		return
	}
	if err := image.Remove(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", image.Path).Msg("Failed to remove orphaned upload")
	}
}
