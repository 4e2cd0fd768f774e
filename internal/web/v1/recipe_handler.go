package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/spicescript/recipe-service/internal/core/domain"
	"github.com/spicescript/recipe-service/internal/formdata"
	logicv1 "github.com/spicescript/recipe-service/internal/logic/v1"
	"github.com/spicescript/recipe-service/internal/router"
	"github.com/spicescript/recipe-service/middleware"
)

// bodySlack allows form fields and part framing on top of the image limit
// when capping multipart request bodies.
const bodySlack = 1 << 20

// RecipeHandler groups the HTTP handlers for recipe endpoints.
type RecipeHandler struct {
	recipes       *logicv1.RecipeService
	uploadDir     string
	maxImageBytes int64
}

// NewRecipeHandler creates a RecipeHandler saving uploads under uploadDir.
func NewRecipeHandler(recipes *logicv1.RecipeService, uploadDir string, maxImageBytes int64) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, uploadDir: uploadDir, maxImageBytes: maxImageBytes}
}

// RegisterRoutes registers the recipe endpoints. Reads are public; mutations
// require a session.
func (h *RecipeHandler) RegisterRoutes(rt *router.Router, authn *middleware.Authenticator) {
	rt.Handle(http.MethodGet, "/api/recipes", h.List)
	rt.Handle(http.MethodGet, "/api/recipes/:id", h.Get)
	rt.Handle(http.MethodPost, "/api/recipes", authn.Require(h.Create))
	rt.Handle(http.MethodPut, "/api/recipes/:id", authn.Require(h.Update))
	rt.Handle(http.MethodDelete, "/api/recipes/:id", authn.Require(h.Delete))
}

// List handles GET /api/recipes. An optional ?search= filters by name or
// description.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) error {
	recipes, err := h.recipes.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		return fmt.Errorf("list recipes: %w", err)
	}
	if recipes == nil {
		recipes = []domain.Recipe{}
	}
	return writeJSON(w, r, http.StatusOK, Envelope{
		Success: true,
		Data:    map[string]any{"recipes": recipes},
	})
}

// Get handles GET /api/recipes/:id.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := recipeID(r)
	if err != nil {
		return err
	}
	recipe, err := h.recipes.Get(r.Context(), id)
	if err != nil {
		return fmt.Errorf("get recipe: %w", err)
	}
	return writeJSON(w, r, http.StatusOK, Envelope{
		Success: true,
		Data:    map[string]any{"recipe": recipe},
	})
}

// Create handles POST /api/recipes. The body is multipart/form-data with the
// recipe fields and a required image part.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) error {
	user, _ := middleware.UserFromContext(r.Context())

	in, image, err := h.readMultipart(r)
	if err != nil {
		return err
	}

	recipe, err := h.recipes.Create(r.Context(), user, in, image)
	if err != nil {
		return fmt.Errorf("create recipe: %w", err)
	}

	zerolog.Ctx(r.Context()).Info().
		Int("recipe_id", recipe.ID).
		Int("user_id", user.ID).
		Msg("Recipe created")

	return writeJSON(w, r, http.StatusCreated, Envelope{
		Success: true,
		Data:    map[string]any{"recipe": recipe},
	})
}

// Update handles PUT /api/recipes/:id. The body is either multipart (image
// optional) or plain JSON.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) error {
	user, _ := middleware.UserFromContext(r.Context())

	id, err := recipeID(r)
	if err != nil {
		return err
	}

	var in logicv1.RecipeInput
	var image *formdata.File
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		in, image, err = h.readMultipart(r)
		if err != nil {
			return err
		}
	} else if err := decodeJSON(r, &in); err != nil {
		return err
	}

	recipe, err := h.recipes.Update(r.Context(), user, id, in, image)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	return writeJSON(w, r, http.StatusOK, Envelope{
		Success: true,
		Data:    map[string]any{"recipe": recipe},
	})
}

// Delete handles DELETE /api/recipes/:id.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	user, _ := middleware.UserFromContext(r.Context())

	id, err := recipeID(r)
	if err != nil {
		return err
	}
	if err := h.recipes.Delete(r.Context(), user, id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}

	zerolog.Ctx(r.Context()).Info().
		Int("recipe_id", id).
		Int("user_id", user.ID).
		Msg("Recipe deleted")

	return writeJSON(w, r, http.StatusOK, Envelope{
		Success: true,
		Message: "Recipe deleted successfully",
	})
}

// readMultipart validates the Content-Type, reads the capped body, and
// decodes it into recipe fields plus the optional image part.
func (h *RecipeHandler) readMultipart(r *http.Request) (logicv1.RecipeInput, *formdata.File, error) {
	var in logicv1.RecipeInput

	boundary, err := formdata.Boundary(r.Header.Get("Content-Type"))
	if err != nil {
		return in, nil, err
	}

	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, h.maxImageBytes+bodySlack))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return in, nil, fmt.Errorf("request body exceeds %d bytes: %w", mbe.Limit, logicv1.ErrInvalidImage)
		}
		return in, nil, fmt.Errorf("read request body: %w", err)
	}

	form, err := formdata.Decode(body, boundary, h.uploadDir)
	if err != nil {
		return in, nil, fmt.Errorf("decode multipart body: %w", err)
	}

	in = logicv1.RecipeInput{
		RecipeName:  form.Fields["recipeName"],
		Description: form.Fields["description"],
		Ingredients: form.Fields["ingredients"],
		Directions:  form.Fields["directions"],
	}
	if f, ok := form.Files["image"]; ok {
		return in, &f, nil
	}
	return in, nil, nil
}

// recipeID coerces the :id path parameter to a number. A non-numeric id can
// never match a stored recipe, so it is reported as not found.
func recipeID(r *http.Request) (int, error) {
	raw := router.Param(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("recipe id %q: %w", raw, domain.ErrNotFound)
	}
	return id, nil
}
